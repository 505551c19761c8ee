package opt

import (
	"testing"

	"github.com/llir/llvm/asm"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"
	"github.com/stretchr/testify/require"
)

func parseModule(t *testing.T, src string) *ir.Module {
	t.Helper()
	mod, err := asm.ParseString("test.ll", src)
	require.NoError(t, err)
	return mod
}

func parseFunc(t *testing.T, src string) (*ir.Module, *ir.Func) {
	t.Helper()
	mod := parseModule(t, src)
	for _, fn := range mod.Funcs {
		if len(fn.Blocks) > 0 {
			return mod, fn
		}
	}
	t.Fatal("no defined function in fixture")
	return nil, nil
}

func instByName(t *testing.T, fn *ir.Func, name string) ir.Instruction {
	t.Helper()
	inst := findInst(fn, name)
	if inst == nil {
		t.Fatalf("instruction %%%s not found", name)
	}
	return inst
}

func findInst(fn *ir.Func, name string) ir.Instruction {
	for _, block := range fn.Blocks {
		for _, inst := range block.Insts {
			if named, ok := inst.(value.Named); ok && named.Name() == name {
				return inst
			}
		}
	}
	return nil
}

// instNames lists the names of all value-producing instructions left in
// fn, in program order.
func instNames(fn *ir.Func) []string {
	var names []string
	for _, block := range fn.Blocks {
		for _, inst := range block.Insts {
			if named, ok := inst.(value.Named); ok {
				names = append(names, named.Name())
			}
		}
	}
	return names
}

func countLoads(fn *ir.Func, volatileOnly bool) int {
	n := 0
	for _, block := range fn.Blocks {
		for _, inst := range block.Insts {
			if load, ok := inst.(*ir.InstLoad); ok {
				if !volatileOnly || load.Volatile {
					n++
				}
			}
		}
	}
	return n
}

func countStores(fn *ir.Func, volatileOnly bool) int {
	n := 0
	for _, block := range fn.Blocks {
		for _, inst := range block.Insts {
			if store, ok := inst.(*ir.InstStore); ok {
				if !volatileOnly || store.Volatile {
					n++
				}
			}
		}
	}
	return n
}
