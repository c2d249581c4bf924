package memory

import (
	"fmt"
	"sort"
)

// NewAddressTable creates a new instance of an *AddressTable with
// the specified initial context. Refer to AddressTable's documentation
// for more information.
func NewAddressTable(initialContext string) *AddressTable {
	return &AddressTable{
		currentContext:          initialContext,
		contextToSymbolsToAddrs: make(map[string]map[string]uint32),
	}
}

// AddressTable organizes the addresses of symbols in different contexts.
// Here a context is usually the identifier of one build of the target,
// and a symbol is the name of a routine or structure field whose address
// moved between builds.
type AddressTable struct {
	currentContext          string
	contextToSymbolsToAddrs map[string]map[string]uint32
}

// SetContext sets the current context to the specified value.
func (o *AddressTable) SetContext(context string) *AddressTable {
	o.currentContext = context
	return o
}

// CurrentContext returns the current context.
func (o *AddressTable) CurrentContext() string {
	return o.currentContext
}

// Contexts returns the sorted names of every context in the table.
func (o *AddressTable) Contexts() []string {
	contexts := make([]string, 0, len(o.contextToSymbolsToAddrs))
	for context := range o.contextToSymbolsToAddrs {
		contexts = append(contexts, context)
	}

	sort.Strings(contexts)

	return contexts
}

// AddSymbolInContext adds or sets the address of a symbol for
// the specified context.
func (o *AddressTable) AddSymbolInContext(symbolName string, address uint32, context string) *AddressTable {
	symbolsToAddrs := o.contextToSymbolsToAddrs[context]
	if symbolsToAddrs == nil {
		symbolsToAddrs = make(map[string]uint32)
		o.contextToSymbolsToAddrs[context] = symbolsToAddrs
	}

	symbolsToAddrs[symbolName] = address

	return o
}

// Address returns the address of the specified symbol for the
// currently selected context.
func (o *AddressTable) Address(symbolName string) (uint32, error) {
	symbolsToAddrs, hasIt := o.contextToSymbolsToAddrs[o.currentContext]
	if !hasIt {
		return 0, fmt.Errorf("the current context ('%s') is not in the lookup table",
			o.currentContext)
	}

	addr, hasIt := symbolsToAddrs[symbolName]
	if !hasIt {
		return 0, fmt.Errorf("failed to find the symbol '%s' in the table for '%s'",
			symbolName, o.currentContext)
	}

	return addr, nil
}

// AddressOrExit calls Address. If the context or the symbol do not
// exist, then DefaultExitFn is invoked.
func (o *AddressTable) AddressOrExit(symbolName string) uint32 {
	addr, err := o.Address(symbolName)
	if err != nil {
		DefaultExitFn(err)
	}
	return addr
}
