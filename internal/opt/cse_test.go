package opt

import (
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSEIntraBlock(t *testing.T) {
	src := `
define i32 @f(i32 %x, i32 %y) {
entry:
	%a = add i32 %x, %y
	%b = add i32 %x, %y
	%s = mul i32 %a, %b
	ret i32 %s
}
`
	mod, fn := parseFunc(t, src)
	o := New(mod)
	o.cse(fn)

	assert.Equal(t, []string{"a", "s"}, instNames(fn), "the earlier copy survives")
	assert.Equal(t, uint64(1), o.Stats().Value(StatElim))

	s := instByName(t, fn, "s").(*ir.InstMul)
	a := instByName(t, fn, "a").(value.Value)
	assert.Equal(t, a, s.X)
	assert.Equal(t, a, s.Y)
}

func TestCSECrossBlock(t *testing.T) {
	src := `
define i32 @f(i32 %x, i32 %y, i1 %c) {
entry:
	%p = add i32 %x, %y
	br i1 %c, label %then, label %else
then:
	%q = add i32 %x, %y
	ret i32 %q
else:
	ret i32 %p
}
`
	mod, fn := parseFunc(t, src)
	o := New(mod)
	o.cse(fn)

	assert.Nil(t, findInst(fn, "q"), "the dominated duplicate is erased")
	assert.Equal(t, uint64(1), o.Stats().Value(StatElim))

	var thenBlock *ir.Block
	for _, block := range fn.Blocks {
		if block.Name() == "then" {
			thenBlock = block
		}
	}
	require.NotNil(t, thenBlock)
	ret := thenBlock.Term.(*ir.TermRet)
	p := instByName(t, fn, "p").(value.Value)
	assert.Equal(t, p, ret.X, "the return in %then now takes %p")
}

func TestCSESiblingBlocksDoNotMatch(t *testing.T) {
	src := `
define i32 @f(i32 %x, i32 %y, i1 %c) {
entry:
	br i1 %c, label %left, label %right
left:
	%a = add i32 %x, %y
	ret i32 %a
right:
	%b = add i32 %x, %y
	ret i32 %b
}
`
	mod, fn := parseFunc(t, src)
	o := New(mod)
	o.cse(fn)

	assert.NotNil(t, findInst(fn, "a"))
	assert.NotNil(t, findInst(fn, "b"))
	assert.Equal(t, uint64(0), o.Stats().Value(StatElim), "neither sibling dominates the other")
}

func TestCSECommutedOperandsNotCollapsed(t *testing.T) {
	src := `
define i32 @f(i32 %x, i32 %y) {
entry:
	%a = add i32 %x, %y
	%b = add i32 %y, %x
	%s = mul i32 %a, %b
	ret i32 %s
}
`
	mod, fn := parseFunc(t, src)
	o := New(mod)
	o.cse(fn)

	assert.Equal(t, []string{"a", "b", "s"}, instNames(fn))
	assert.Equal(t, uint64(0), o.Stats().Value(StatElim))
}

func TestCSESkipsMemoryInstructions(t *testing.T) {
	src := `
define i32 @f(i32* %p) {
entry:
	%l1 = load i32, i32* %p
	%l2 = load i32, i32* %p
	%s = add i32 %l1, %l2
	ret i32 %s
}
`
	mod, fn := parseFunc(t, src)
	o := New(mod)
	o.cse(fn)

	assert.Equal(t, []string{"l1", "l2", "s"}, instNames(fn), "loads are left for redundant-load elimination")
	assert.Equal(t, uint64(0), o.Stats().Value(StatElim))
}

func TestCSEChainCollapsesToDominatingCopy(t *testing.T) {
	src := `
define i32 @f(i32 %x, i32 %y) {
entry:
	%a = add i32 %x, %y
	%b = add i32 %x, %y
	%c = add i32 %x, %y
	%s1 = mul i32 %a, %b
	%s2 = mul i32 %s1, %c
	ret i32 %s2
}
`
	mod, fn := parseFunc(t, src)
	o := New(mod)
	o.cse(fn)

	assert.Equal(t, []string{"a", "s1", "s2"}, instNames(fn))
	assert.Equal(t, uint64(2), o.Stats().Value(StatElim))

	a := instByName(t, fn, "a").(value.Value)
	s1 := instByName(t, fn, "s1").(*ir.InstMul)
	s2 := instByName(t, fn, "s2").(*ir.InstMul)
	assert.Equal(t, a, s1.X)
	assert.Equal(t, a, s1.Y)
	assert.Equal(t, a, s2.Y)
}

func TestCSEDeepDominatorChain(t *testing.T) {
	src := `
define i32 @f(i32 %x, i32 %y, i1 %c) {
entry:
	%p = add i32 %x, %y
	br label %mid
mid:
	%q = add i32 %x, %y
	br i1 %c, label %deep, label %out
deep:
	%r = add i32 %x, %y
	br label %out
out:
	%s = add i32 %p, %p
	ret i32 %s
}
`
	mod, fn := parseFunc(t, src)
	o := New(mod)
	o.cse(fn)

	assert.Nil(t, findInst(fn, "q"))
	assert.Nil(t, findInst(fn, "r"))
	assert.NotNil(t, findInst(fn, "p"))
	assert.Equal(t, uint64(2), o.Stats().Value(StatElim))
}
