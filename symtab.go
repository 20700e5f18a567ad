// Completion: 100% - symbol table complete
package main

import "sort"

// Symbol is one entry per named entity known at compile time (spec §3).
type Symbol struct {
	Name string
	Kind SymbolKind

	ScalarType ScalarType
	IsPointer  bool // pointer-to-scalar modifier; forces size to 2

	ReturnType    ScalarType
	HasReturnType bool

	ParameterIndex int // 1-based for parameters, 0 for non-parameters
	Parent         string
	HasParent      bool // parent=="" with HasParent==false means global/static

	IsTemp bool // compiler-generated intermediate

	// IP: for functions/labels, the IR index of their first instruction;
	// for statics, the final byte offset within the static-data segment
	// (set by the packager's static-data layout, layoutStaticData).
	IP int

	// OffsetOrSize: for functions, the byte size of the local-variable area
	// (parameters excluded; it sizes the prologue's sub esp); for local vars
	// and parameters, the finalized frame offset (signed). Both are set by
	// assignFrameOffsets. Statics do not use it: their size comes from
	// EffectiveSize.
	OffsetOrSize int

	// RefCount accumulates shared-function call references at IR-emit
	// time; see spec §4.2 ("the one exception").
	RefCount int
}

func (s *Symbol) EffectiveSize() int {
	return EffectiveSize(s.ScalarType, s.IsPointer)
}

// SymbolTable is the emitter's read-only (post-finalization) view over the
// program's symbols (C2). Before finalization it is the mutable structure
// the front end populates while building the IR.
type SymbolTable struct {
	// byGlobalName holds symbols with no parent (functions, shared
	// functions, global statics/labels).
	byGlobalName map[string]*Symbol

	// byScopedName holds symbols keyed by "parent\x00name" (locals,
	// parameters, function-local labels).
	byScopedName map[string]*Symbol

	// order preserves declaration order for deterministic static-data
	// layout and deterministic diagnostics.
	order []*Symbol

	finalized bool
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		byGlobalName: make(map[string]*Symbol),
		byScopedName: make(map[string]*Symbol),
	}
}

func scopedKey(parent, name string) string {
	return parent + "\x00" + name
}

// Declare registers a new symbol. Local symbols (sym.HasParent) are keyed
// under their parent function; everything else is global.
func (t *SymbolTable) Declare(sym *Symbol) {
	if t.finalized {
		internalErr("SymbolTable.Declare: table already finalized")
	}
	if sym.HasParent {
		t.byScopedName[scopedKey(sym.Parent, sym.Name)] = sym
	} else {
		t.byGlobalName[sym.Name] = sym
	}
	t.order = append(t.order, sym)
}

// LookupVariable resolves (scope=parent, name) to a Symbol: function-local
// first, then falling back to global, per the invariant in spec §3.
func (t *SymbolTable) LookupVariable(scope, name string) *Symbol {
	if scope != "" {
		if sym, ok := t.byScopedName[scopedKey(scope, name)]; ok {
			return sym
		}
	}
	if sym, ok := t.byGlobalName[name]; ok {
		return sym
	}
	internalErr("LookupVariable: %q not found in scope %q or globally", name, scope)
	return nil
}

// TryLookupVariable is the non-panicking variant, used by the front end
// while it still might be looking at an undeclared identifier.
func (t *SymbolTable) TryLookupVariable(scope, name string) (*Symbol, bool) {
	if scope != "" {
		if sym, ok := t.byScopedName[scopedKey(scope, name)]; ok {
			return sym, true
		}
	}
	sym, ok := t.byGlobalName[name]
	return sym, ok
}

// ResolveFunction looks up a callable (function, prototype, entry point or
// shared function) by its global name.
func (t *SymbolTable) ResolveFunction(name string) *Symbol {
	sym, ok := t.byGlobalName[name]
	if !ok || !sym.Kind.IsCallable() {
		internalErr("ResolveFunction: %q is not a known callable", name)
	}
	return sym
}

func (t *SymbolTable) TryResolveFunction(name string) (*Symbol, bool) {
	sym, ok := t.byGlobalName[name]
	if !ok || !sym.Kind.IsCallable() {
		return nil, false
	}
	return sym, true
}

// ResolveLabel looks up a label, preferring one scoped to fn.
func (t *SymbolTable) ResolveLabel(fn, name string) *Symbol {
	if sym, ok := t.byScopedName[scopedKey(fn, name)]; ok {
		return sym
	}
	if sym, ok := t.byGlobalName[name]; ok && sym.Kind == SymLabel {
		return sym
	}
	internalErr("ResolveLabel: %q not found in function %q", name, fn)
	return nil
}

// ParametersOf returns the ordered parameter list of a function, sorted by
// ParameterIndex (1-based, matching push order).
func (t *SymbolTable) ParametersOf(functionName string) []*Symbol {
	var params []*Symbol
	prefix := scopedKey(functionName, "")
	for k, sym := range t.byScopedName {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix && sym.ParameterIndex > 0 {
			params = append(params, sym)
		}
	}
	sort.Slice(params, func(i, j int) bool { return params[i].ParameterIndex < params[j].ParameterIndex })
	return params
}

// LocalsOf returns the non-parameter local variables declared within fn, in
// declaration order (stable because order[] preserves Declare order).
func (t *SymbolTable) LocalsOf(functionName string) []*Symbol {
	var locals []*Symbol
	for _, sym := range t.order {
		if sym.HasParent && sym.Parent == functionName && sym.ParameterIndex == 0 && sym.Kind == SymScalarVar {
			locals = append(locals, sym)
		}
	}
	return locals
}

// AllFunctions returns every Function/EntryPoint symbol in declaration order.
func (t *SymbolTable) AllFunctions() []*Symbol {
	var fns []*Symbol
	for _, sym := range t.order {
		if sym.Kind == SymFunction || sym.Kind == SymEntryPoint {
			fns = append(fns, sym)
		}
	}
	return fns
}

// AllStatics returns every global ScalarVar/StringVar, in declaration order.
func (t *SymbolTable) AllStatics() []*Symbol {
	var statics []*Symbol
	for _, sym := range t.order {
		if !sym.HasParent && (sym.Kind == SymScalarVar || sym.Kind == SymStringVar) {
			statics = append(statics, sym)
		}
	}
	return statics
}

// SizeOf resolves the finalized byte size for a scalar type plus pointer
// modifier (C2's size_of requirement: 1/1/2/4, pointers always 2).
func (t *SymbolTable) SizeOf(scalarType ScalarType, isPointer bool) int {
	return EffectiveSize(scalarType, isPointer)
}

// Finalize marks the table read-only. It does not itself compute frame
// offsets or static-data placement -- those are driven by the emitter
// (locals, per function, as it compiles) and the packager (statics/strings,
// in C8), per spec §4.5's resolution order. Finalize exists so the one
// permitted post-hoc mutation (RefCount bumps on shared-function symbols)
// has a clear "after this point, nothing else changes" boundary for
// everything but that counter.
func (t *SymbolTable) Finalize() {
	t.finalized = true
}

// BumpSharedFunctionRef is the single mutation the emitter is allowed to
// perform on an otherwise-finalized table: incrementing a shared function's
// reference count as Call instructions targeting it are emitted (spec §4.2).
func (t *SymbolTable) BumpSharedFunctionRef(name string) {
	sym, ok := t.byGlobalName[name]
	if !ok || sym.Kind != SymSharedFunction {
		internalErr("BumpSharedFunctionRef: %q is not a shared function", name)
	}
	sym.RefCount++
}
