package opt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDCEErasesLastDeadPerBlock(t *testing.T) {
	src := `
define i32 @f(i32 %x) {
entry:
	%d1 = add i32 %x, 1
	%live = mul i32 %x, 2
	%d2 = add i32 %x, 3
	ret i32 %live
}
`
	mod, fn := parseFunc(t, src)
	o := New(mod)

	// one invocation erases only the last dead instruction seen
	o.deadCodeElim(fn)
	assert.Equal(t, []string{"d1", "live"}, instNames(fn))
	assert.Equal(t, uint64(1), o.Stats().Value(StatDead))

	o.deadCodeElim(fn)
	assert.Equal(t, []string{"live"}, instNames(fn))
	assert.Equal(t, uint64(2), o.Stats().Value(StatDead))

	// nothing dead remains
	o.deadCodeElim(fn)
	assert.Equal(t, uint64(2), o.Stats().Value(StatDead))
}

func TestDCEDrainsChainFromTheTail(t *testing.T) {
	src := `
define i32 @f(i32 %x, i32 %y) {
entry:
	%a = add i32 %x, %y
	%b = mul i32 %a, 2
	ret i32 %x
}
`
	mod, fn := parseFunc(t, src)
	o := New(mod)

	o.deadCodeElim(fn)
	assert.Equal(t, []string{"a"}, instNames(fn), "only the tail of the chain is dead on the first sweep")

	o.deadCodeElim(fn)
	assert.Empty(t, instNames(fn))
	assert.Equal(t, uint64(2), o.Stats().Value(StatDead))
}

func TestDCELeavesSideEffects(t *testing.T) {
	src := `
declare void @effect()

define void @f(i32 %x, i32* %p) {
entry:
	store i32 %x, i32* %p
	call void @effect()
	%vld = load volatile i32, i32* %p
	ret void
}
`
	mod, fn := parseFunc(t, src)
	o := New(mod)

	for i := 0; i < 3; i++ {
		o.deadCodeElim(fn)
	}
	assert.Equal(t, uint64(0), o.Stats().Value(StatDead))
	assert.Equal(t, 3, len(fn.Blocks[0].Insts))
}

func TestDCEPerBlockIndependence(t *testing.T) {
	src := `
define i32 @f(i32 %x, i1 %c) {
entry:
	%d1 = add i32 %x, 1
	br i1 %c, label %then, label %done
then:
	%d2 = add i32 %x, 2
	br label %done
done:
	ret i32 %x
}
`
	mod, fn := parseFunc(t, src)
	o := New(mod)

	// one dead instruction per block, so a single sweep clears both
	o.deadCodeElim(fn)
	assert.Empty(t, instNames(fn))
	assert.Equal(t, uint64(2), o.Stats().Value(StatDead))
}
