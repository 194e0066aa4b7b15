package emu

import "github.com/r2lab/r2sim/insts"

// condTrue evaluates a transfer condition against the condition
// codes. Signed comparisons combine N and V so they stay correct when
// the compare overflowed.
func condTrue(c insts.Cond, p PSW) bool {
	switch c {
	case insts.CondGt:
		return !p.Z && p.N == p.V
	case insts.CondLe:
		return p.Z || p.N != p.V
	case insts.CondGe:
		return p.N == p.V
	case insts.CondLt:
		return p.N != p.V
	case insts.CondHi:
		return p.C && !p.Z
	case insts.CondLos:
		return !p.C || p.Z
	case insts.CondLonc:
		return !p.C
	case insts.CondHisc:
		return p.C
	case insts.CondPl:
		return !p.N
	case insts.CondMi:
		return p.N
	case insts.CondNe:
		return !p.Z
	case insts.CondEq:
		return p.Z
	case insts.CondNv:
		return !p.V
	case insts.CondV:
		return p.V
	case insts.CondAlw:
		return true
	default:
		return false
	}
}
