package trainer

import (
	"encoding/binary"
	"fmt"

	"github.com/go-restruct/restruct"

	"gitlab.com/stephen-fox/pvzkit/asmkit"
)

const (
	// Waves is the number of waves in a spawn list.
	Waves = 20

	// WaveSize is the number of zombies per wave.
	WaveSize = 50

	// ZombieTypes is the number of zombie types.
	ZombieTypes = 33

	// NoZombie marks an unused spawn list entry.
	NoZombie = -1
)

// Zombie types with special placement in CustomizeSpawn.
const (
	ZombieRegular = 0
	ZombieFlag    = 1
	ZombieYeti    = 19
	ZombieBungee  = 20
	ZombieGiga    = 32
)

// SpawnList is the zombies of each wave, in spawn order.
type SpawnList [Waves][WaveSize]int32

// SpawnTypes selects zombie types by type index.
type SpawnTypes [ZombieTypes]bool

// spawnListBlock and spawnTypeBlock are the board's spawn tables.
type spawnListBlock struct {
	List SpawnList
}

type spawnTypeBlock struct {
	Types SpawnTypes
}

// SpawnOptions configure CustomizeSpawn.
type SpawnOptions struct {
	// Simulate picks zombies at random with the game's weights
	// instead of cycling through the types.
	Simulate bool

	// LimitGiga keeps gigas out of waves 11 to 19.
	LimitGiga bool

	// GigaWeight is the weight of gigas in normal waves
	// when simulating.
	GigaWeight int
}

// SpawnList returns the spawn list of the current level. Entries
// after the first NoZombie of a wave are ignored by the game and
// returned as NoZombie.
func (o *Session) SpawnList() (SpawnList, error) {
	var list SpawnList

	if !o.ready() {
		return list, ErrTargetUnavailable
	}

	ok, err := o.inLevel()
	if err != nil {
		return list, err
	}

	if !ok {
		return list, fmt.Errorf("%w - not in a level", ErrTargetUnavailable)
	}

	raw, err := o.resolver.ReadBytes(o.board("spawn_list"), Waves*WaveSize*4)
	if err != nil {
		return list, fmt.Errorf("failed to read spawn list - %w", err)
	}

	var block spawnListBlock
	err = restruct.Unpack(raw, binary.LittleEndian, &block)
	if err != nil {
		return list, fmt.Errorf("failed to unpack spawn list - %w", err)
	}

	list = block.List

	for w := range list {
		ended := false
		for i := range list[w] {
			if list[w][i] == NoZombie {
				ended = true
			}

			if ended {
				list[w][i] = NoZombie
			}
		}
	}

	return list, nil
}

func (o *Session) writeSpawnList(list *SpawnList) error {
	raw, err := restruct.Pack(binary.LittleEndian, &spawnListBlock{List: *list})
	if err != nil {
		return fmt.Errorf("failed to pack spawn list - %w", err)
	}

	err = o.resolver.WriteBytes(o.board("spawn_list"), raw)
	if err != nil {
		return fmt.Errorf("failed to write spawn list - %w", err)
	}

	return nil
}

func emptySpawnList() *SpawnList {
	list := &SpawnList{}
	for w := range list {
		for i := range list[w] {
			list[w][i] = NoZombie
		}
	}

	return list
}

// InternalSpawn selects the zombie types of the level and lets the
// game generate the spawn list.
func (o *Session) InternalSpawn(types SpawnTypes) error {
	if !o.ready() {
		return nil
	}

	ui, err := o.gameUI()
	if err != nil {
		return err
	}

	if ui != uiSeedChooser && ui != uiPlaying {
		return nil
	}

	raw, err := restruct.Pack(binary.LittleEndian, &spawnTypeBlock{Types: types})
	if err != nil {
		return fmt.Errorf("failed to pack spawn types - %w", err)
	}

	err = o.resolver.WriteBytes(o.board("spawn_type"), raw)
	if err != nil {
		return fmt.Errorf("failed to write spawn types - %w", err)
	}

	err = o.writeSpawnList(emptySpawnList())
	if err != nil {
		return err
	}

	b := asmkit.NewBuilder()
	o.code.GenerateSpawnList(b)

	err = o.run(b.Ret())
	if err != nil {
		return err
	}

	if ui == uiSeedChooser {
		return o.updateSpawnPreview()
	}

	return nil
}

// CustomizeSpawn writes a spawn list made of the selected types.
func (o *Session) CustomizeSpawn(types SpawnTypes, options SpawnOptions) error {
	if !o.ready() {
		return nil
	}

	ui, err := o.gameUI()
	if err != nil {
		return err
	}

	if ui != uiSeedChooser && ui != uiPlaying {
		return nil
	}

	list := BuildSpawnList(types, options, o.config.Rand.Intn)

	err = o.writeSpawnList(list)
	if err != nil {
		return err
	}

	if ui == uiSeedChooser {
		return o.updateSpawnPreview()
	}

	return nil
}

func (o *Session) updateSpawnPreview() error {
	err := o.setHack("hack_spawn_preview", true)
	if err != nil {
		return err
	}

	b := asmkit.NewBuilder()
	o.code.UpdateSpawnPreview(b)

	runErr := o.run(b.Ret())

	err = o.setHack("hack_spawn_preview", false)
	if runErr != nil {
		return runErr
	}

	return err
}

// spawnWeights are the game's zombie weights.
var spawnWeights = [ZombieTypes]int{
	4000, 0, 4000, 2000, 3000, 1000, 3500, 2000, 1000, 0,
	0, 2000, 2000, 2000, 1500, 1000, 2000, 1000, 1000, 1,
	1000, 1000, 1500, 1500, 0, 0, 4000, 3000, 1000, 2000,
	2000, 2000, 6000,
}

// Fixed spawn list positions of the two flag waves.
var (
	flagIndexes    = []int{450, 950}
	regularIndexes = []int{451, 452, 453, 454, 455, 456, 457, 458, 951, 952, 953, 954, 955, 956, 957, 958}
	bungeeIndexes  = []int{459, 460, 461, 462, 959, 960, 961, 962}
)

// BuildSpawnList fills a spawn list with the selected types. intn
// returns a random number in [0, n).
//
// Flag zombies, bungees and the yeti are not spread over the list
// but placed at fixed positions: flags lead the flag waves, bungees
// follow them, and one yeti is put at a random position.
func BuildSpawnList(types SpawnTypes, options SpawnOptions, intn func(n int) int) *SpawnList {
	list := emptySpawnList()

	count := 0
	for _, selected := range types {
		if selected {
			count++
		}
	}

	if count == 0 {
		return list
	}

	flagWeights := spawnWeights
	flagWeights[ZombieRegular] = 400
	flagWeights[2] = 1000

	normalWeights := flagWeights
	normalWeights[ZombieGiga] = 0
	if options.GigaWeight > 0 {
		normalWeights[ZombieGiga] = options.GigaWeight
	}

	allowed := func(typ int, wave int) bool {
		switch {
		case !types[typ]:
			return false
		case typ == ZombieFlag, typ == ZombieYeti, typ == ZombieBungee:
			return false
		case typ == ZombieGiga && options.LimitGiga && wave >= 10 && wave <= 18:
			return false
		}

		return true
	}

	last := 0
	for w := 0; w < Waves; w++ {
		var candidates []int
		for typ := 0; typ < ZombieTypes; typ++ {
			if allowed(typ, w) {
				candidates = append(candidates, typ)
			}
		}

		if len(candidates) == 0 {
			continue
		}

		weights := normalWeights
		if w%10 == 9 {
			weights = flagWeights
		}

		for i := 0; i < WaveSize; i++ {
			var typ int
			if options.Simulate {
				typ = pickWeighted(candidates, weights[:], intn)
			} else {
				typ = nextType(last, candidates)
			}

			list[w][i] = int32(typ)
			last = typ
		}
	}

	set := func(indexes []int, typ int32) {
		for _, i := range indexes {
			list[i/WaveSize][i%WaveSize] = typ
		}
	}

	if types[ZombieFlag] || options.Simulate {
		set(flagIndexes, ZombieFlag)
	}

	if options.Simulate {
		set(regularIndexes, ZombieRegular)
	}

	if types[ZombieBungee] {
		set(bungeeIndexes, ZombieBungee)
	}

	if types[ZombieYeti] {
		i := intn(Waves * WaveSize)
		list[i/WaveSize][i%WaveSize] = ZombieYeti
	}

	return list
}

// nextType returns the first candidate after last, wrapping around.
func nextType(last int, candidates []int) int {
	for _, typ := range candidates {
		if typ > last {
			return typ
		}
	}

	return candidates[0]
}

// pickWeighted picks a candidate with probability proportional to
// its weight. Candidates are picked uniformly if every weight is zero.
func pickWeighted(candidates []int, weights []int, intn func(n int) int) int {
	total := 0
	for _, typ := range candidates {
		total += weights[typ]
	}

	if total <= 0 {
		return candidates[intn(len(candidates))]
	}

	n := intn(total)
	for _, typ := range candidates {
		if n < weights[typ] {
			return typ
		}

		n -= weights[typ]
	}

	return candidates[len(candidates)-1]
}
