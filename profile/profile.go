// Package profile describes the known builds of the target.
//
// Each build has a Profile holding the addresses that differ between
// builds: the base pointer, the offsets of structure fields, the byte
// patches behind every hack, and the entry points of internal routines.
// Profiles are loaded from YAML and never change afterwards. The
// catalogue of every supported build is embedded; see Default.
package profile

import (
	"fmt"
	"sort"

	"gitlab.com/stephen-fox/pvzkit/asmkit"
	"gitlab.com/stephen-fox/pvzkit/hack"
	"gitlab.com/stephen-fox/pvzkit/memory"
)

// GuardPatch is the name of the patch that pauses the target's main
// loop while injected code runs.
const GuardPatch = "safe_thread"

// Signature identifies a build: a file version and a 4-byte value
// found at a fixed address of the executable image.
type Signature struct {
	Versions []string
	Address  uint32
	Value    uint32
}

// Matches reports whether the signature's versions include version.
func (o Signature) Matches(version string) bool {
	for _, v := range o.Versions {
		if v == version {
			return true
		}
	}

	return false
}

// WisdomTreeConvention is how a build's wisdom tree routine finds
// the Zen Garden.
type WisdomTreeConvention string

const (
	// WisdomTreeEDIBase loads the base address into edi.
	WisdomTreeEDIBase WisdomTreeConvention = "edi_base"

	// WisdomTreeESIIndirect loads the indirect base into esi.
	WisdomTreeESIIndirect WisdomTreeConvention = "esi_indirect"

	// WisdomTreeEDIIndirect loads the indirect base into edi.
	WisdomTreeEDIIndirect WisdomTreeConvention = "edi_indirect"

	// WisdomTreeEBXPushIndirect pushes the indirect base from ebx.
	WisdomTreeEBXPushIndirect WisdomTreeConvention = "ebx_push_indirect"
)

// PutZombieConvention is how a build's put zombie routine takes
// its row.
type PutZombieConvention string

const (
	// PutZombieStack pushes the column and type and passes the
	// row in eax.
	PutZombieStack PutZombieConvention = "stack"

	// PutZombieRegister passes the row in eax and the column in ecx.
	PutZombieRegister PutZombieConvention = "register"
)

// LevelCompleteConvention is how a build's level complete routine
// takes the board.
type LevelCompleteConvention string

const (
	// LevelCompleteECX passes the board in ecx.
	LevelCompleteECX LevelCompleteConvention = "ecx"

	// LevelCompletePushEAX pushes the board from eax.
	LevelCompletePushEAX LevelCompleteConvention = "push_eax"
)

// Conventions are the calling variants of routines whose arguments
// moved between builds.
type Conventions struct {
	WisdomTree           WisdomTreeConvention    `yaml:"wisdom_tree"`
	PutZombie            PutZombieConvention     `yaml:"put_zombie"`
	PutGraveReg          string                  `yaml:"put_grave_reg"`
	LevelComplete        LevelCompleteConvention `yaml:"level_complete"`
	WakeupPlantReg       string                  `yaml:"wakeup_plant_reg"`
	GenerateSpawnListReg string                  `yaml:"generate_spawn_list_reg"`
}

// PutGraveRegister returns the register holding the column for
// the put grave routine.
func (o Conventions) PutGraveRegister() asmkit.Register {
	r, _ := asmkit.ParseRegister(o.PutGraveReg)
	return r
}

// WakeupPlantRegister returns the register holding the plant for
// the wake up routine.
func (o Conventions) WakeupPlantRegister() asmkit.Register {
	r, _ := asmkit.ParseRegister(o.WakeupPlantReg)
	return r
}

// GenerateSpawnListRegister returns the register holding the board
// for the generate spawn list routine.
func (o Conventions) GenerateSpawnListRegister() asmkit.Register {
	r, _ := asmkit.ParseRegister(o.GenerateSpawnListReg)
	return r
}

func (o Conventions) validate() error {
	switch o.WisdomTree {
	case WisdomTreeEDIBase, WisdomTreeESIIndirect, WisdomTreeEDIIndirect, WisdomTreeEBXPushIndirect:
	default:
		return fmt.Errorf("unknown wisdom tree convention: %q", o.WisdomTree)
	}

	switch o.PutZombie {
	case PutZombieStack, PutZombieRegister:
	default:
		return fmt.Errorf("unknown put zombie convention: %q", o.PutZombie)
	}

	switch o.LevelComplete {
	case LevelCompleteECX, LevelCompletePushEAX:
	default:
		return fmt.Errorf("unknown level complete convention: %q", o.LevelComplete)
	}

	for name, reg := range map[string]string{
		"put_grave_reg":           o.PutGraveReg,
		"wakeup_plant_reg":        o.WakeupPlantReg,
		"generate_spawn_list_reg": o.GenerateSpawnListReg,
	} {
		_, err := asmkit.ParseRegister(reg)
		if err != nil {
			return fmt.Errorf("invalid %s - %w", name, err)
		}
	}

	return nil
}

// Profile holds the addresses of one build.
type Profile struct {
	id          string
	name        string
	goty        bool
	signature   Signature
	baseAddress uint32
	offsets     map[string]uint32
	patches     map[string]hack.Patch
	routines    map[string]uint32
	conventions Conventions
}

// ID returns the build identifier, for example "1.0.0.1051_en".
func (o *Profile) ID() string {
	return o.id
}

// Name returns a human readable name of the build.
func (o *Profile) Name() string {
	return o.name
}

// GOTY reports whether the build is a Game of the Year edition.
func (o *Profile) GOTY() bool {
	return o.goty
}

// Signature returns a copy of the values that identify the build.
func (o *Profile) Signature() Signature {
	sig := o.signature
	sig.Versions = append([]string(nil), o.signature.Versions...)
	return sig
}

// BaseAddress returns the address of the pointer to the
// application object.
func (o *Profile) BaseAddress() uint32 {
	return o.baseAddress
}

// Conventions returns the build's routine calling variants.
func (o *Profile) Conventions() Conventions {
	return o.conventions
}

// Offset returns the named offset. Every required offset is present
// in a loaded Profile. Unknown names return zero.
func (o *Profile) Offset(name string) uint32 {
	return o.offsets[name]
}

// LookupOffset returns the named offset and whether it exists.
func (o *Profile) LookupOffset(name string) (uint32, bool) {
	v, ok := o.offsets[name]
	return v, ok
}

// Path returns the FieldPath starting at the base address and
// following the named offsets.
func (o *Profile) Path(offsetNames ...string) memory.FieldPath {
	path := make(memory.FieldPath, 0, len(offsetNames)+1)
	path = append(path, o.baseAddress)

	for _, name := range offsetNames {
		path = append(path, o.offsets[name])
	}

	return path
}

// Routine returns the address of the named routine. Unknown names
// return zero.
func (o *Profile) Routine(name string) uint32 {
	return o.routines[name]
}

// LookupRoutine returns the address of the named routine and
// whether it exists.
func (o *Profile) LookupRoutine(name string) (uint32, bool) {
	v, ok := o.routines[name]
	return v, ok
}

// Patch returns a copy of the named patch.
func (o *Profile) Patch(name string) (hack.Patch, bool) {
	p, ok := o.patches[name]
	if !ok {
		return nil, false
	}

	cp := make(hack.Patch, len(p))
	for i, record := range p {
		cp[i] = hack.Record{
			Address:     record.Address,
			Original:    append([]byte(nil), record.Original...),
			Replacement: append([]byte(nil), record.Replacement...),
		}
	}

	return cp, true
}

// Guard returns the patch that pauses the target's main loop.
func (o *Profile) Guard() hack.Patch {
	p, _ := o.Patch(GuardPatch)
	return p
}

// OffsetNames returns the sorted names of every offset.
func (o *Profile) OffsetNames() []string {
	return sortedKeys(o.offsets)
}

// PatchNames returns the sorted names of every patch.
func (o *Profile) PatchNames() []string {
	return sortedKeys(o.patches)
}

// RoutineNames returns the sorted names of every routine.
func (o *Profile) RoutineNames() []string {
	return sortedKeys(o.routines)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// String returns the build's name.
func (o *Profile) String() string {
	return o.name
}
