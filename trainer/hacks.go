package trainer

import (
	"fmt"
	"sort"

	"gitlab.com/stephen-fox/pvzkit/asmkit"
	"gitlab.com/stephen-fox/pvzkit/memory"
)

// Feature is a toggle made of one or more patches.
type Feature int

const (
	AutoCollect Feature = iota
	ZombieNoFalling
	FertilizerUnlimited
	BugSprayUnlimited
	ChocolateUnlimited
	TreeFoodUnlimited
	PlantingAnywhere
	FastBelt
	LockShovel
	PlantInvincible
	PlantWeak
	ZombieInvincible
	ZombieWeak
	ReloadInstantly
	MushroomsAwake
	StopSpawning
	StopZombies
	LockButter
	NoCrater
	NoIceTrail
	ZombieNotExplode
	NoFog
	SeeVase
	BackgroundRunning
	UserdataReadonly
	UnlockLimboPage
)

// cloudSavePatch only exists in builds that sync saves to the cloud.
const cloudSavePatch = "disable_save_userdata_cloud"

type featureInfo struct {
	name    string
	patches []string

	// after runs once the patches are applied.
	after func(o *Session, on bool) error
}

var features = map[Feature]featureInfo{
	AutoCollect:     {name: "auto_collect", patches: []string{"auto_collect"}},
	ZombieNoFalling: {name: "zombie_no_falling", patches: []string{"zombie_no_falling"}},
	FertilizerUnlimited: {
		name:    "fertilizer_unlimited",
		patches: []string{"fertilizer_unlimited"},
		after:   refill("fertilizer"),
	},
	BugSprayUnlimited: {
		name:    "bug_spray_unlimited",
		patches: []string{"bug_spray_unlimited"},
		after:   refill("bug_spray"),
	},
	ChocolateUnlimited: {
		name:    "chocolate_unlimited",
		patches: []string{"chocolate_unlimited"},
		after:   refill("chocolate"),
	},
	TreeFoodUnlimited: {
		name:    "tree_food_unlimited",
		patches: []string{"tree_food_unlimited"},
		after:   refill("tree_food"),
	},
	PlantingAnywhere: {
		name:    "planting_anywhere",
		patches: []string{"planting_anywhere", "planting_anywhere_preview", "planting_anywhere_iz"},
	},
	FastBelt: {name: "fast_belt", patches: []string{"fast_belt"}},
	LockShovel: {
		name:    "lock_shovel",
		patches: []string{"lock_shovel"},
		after:   (*Session).grabShovel,
	},
	PlantInvincible: {
		name: "plant_invincible",
		patches: []string{
			"plant_immune_bite", "plant_immune_blast", "plant_immune_burn",
			"plant_immune_pea", "plant_immune_ball", "plant_immune_squish",
			"plant_immune_spikeweed", "plant_immune_spikerock", "plant_immune_zomboss",
		},
	},
	PlantWeak: {
		name: "plant_weak",
		patches: []string{
			"_plant_immune_bite", "_plant_immune_pea",
			"_plant_immune_ball", "_plant_immune_spikeweed",
		},
	},
	ZombieInvincible: {
		name: "zombie_invincible",
		patches: []string{
			"zombie_immune_damage", "zombie_immune_type1", "zombie_immune_type2",
			"zombie_immune_ashes", "zombie_immune_cherry", "zombie_immune_jalapeno",
			"zombie_immune_chomper", "zombie_immune_hypno", "zombie_immune_blover",
			"zombie_immune_nearby", "zombie_immune_lawnmower",
		},
	},
	ZombieWeak: {
		name: "zombie_weak",
		patches: []string{
			"_zombie_immune_damage", "_zombie_immune_type1",
			"_zombie_immune_type2", "_zombie_immune_ashes",
		},
	},
	ReloadInstantly: {name: "reload_instantly", patches: []string{"reload_instantly"}},
	MushroomsAwake: {
		name:    "mushrooms_awake",
		patches: []string{"mushrooms_awake"},
		after:   (*Session).wakeMushrooms,
	},
	StopSpawning: {name: "stop_spawning", patches: []string{"stop_spawning"}},
	StopZombies:  {name: "stop_zombies", patches: []string{"stop_zombies"}},
	LockButter:   {name: "lock_butter", patches: []string{"lock_butter"}},
	NoCrater:     {name: "no_crater", patches: []string{"no_crater"}},
	NoIceTrail: {
		name:    "no_ice_trail",
		patches: []string{"no_ice_trail"},
		after:   (*Session).resetIceTrails,
	},
	ZombieNotExplode:  {name: "zombie_not_explode", patches: []string{"zombie_not_explode"}},
	NoFog:             {name: "no_fog", patches: []string{"no_fog"}},
	SeeVase:           {name: "see_vase", patches: []string{"see_vase"}},
	BackgroundRunning: {name: "background_running", patches: []string{"background_running"}},
	UserdataReadonly: {
		name:    "userdata_readonly",
		patches: []string{"disable_delete_userdata", "disable_save_userdata"},
		after:   (*Session).toggleCloudSave,
	},
	UnlockLimboPage: {name: "unlock_limbo_page", patches: []string{"unlock_limbo_page"}},
}

func (o Feature) String() string {
	info, ok := features[o]
	if !ok {
		return fmt.Sprintf("Feature(%d)", int(o))
	}

	return info.name
}

// Patches returns the names of the patches the feature toggles.
func (o Feature) Patches() []string {
	return append([]string(nil), features[o].patches...)
}

// ParseFeature returns the Feature named name.
func ParseFeature(name string) (Feature, error) {
	for f, info := range features {
		if info.name == name {
			return f, nil
		}
	}

	return 0, fmt.Errorf("unknown feature: %q", name)
}

// Features returns every Feature ordered by name.
func Features() []Feature {
	all := make([]Feature, 0, len(features))
	for f := range features {
		all = append(all, f)
	}

	sort.Slice(all, func(i, j int) bool {
		return features[all[i]].name < features[all[j]].name
	})

	return all
}

// SetHack turns feature on or off. Patches are applied in order and
// the first failure is returned; patches before it stay applied.
func (o *Session) SetHack(feature Feature, on bool) error {
	info, ok := features[feature]
	if !ok {
		return fmt.Errorf("unknown feature: %d", int(feature))
	}

	if !o.ready() {
		return nil
	}

	for _, name := range info.patches {
		err := o.setHack(name, on)
		if err != nil {
			return fmt.Errorf("failed to turn %s %s - %w", feature, onOff(on), err)
		}
	}

	if info.after != nil {
		err := info.after(o, on)
		if err != nil {
			return fmt.Errorf("failed to turn %s %s - %w", feature, onOff(on), err)
		}
	}

	return nil
}

func onOff(on bool) string {
	if on {
		return "on"
	}

	return "off"
}

func refill(offsetName string) func(*Session, bool) error {
	return func(o *Session, on bool) error {
		if !on {
			return nil
		}

		return o.writeInt32(o.path("user_data", offsetName), ItemRefill)
	}
}

// cursorShovel is the cursor_grab value of a held shovel.
const cursorShovel = 6

func (o *Session) grabShovel(on bool) error {
	ok, err := o.inLevel()
	if err != nil || !ok {
		return err
	}

	cursor, err := o.readUint32(o.board("cursor"))
	if err != nil {
		return err
	}

	grab := memory.Path(cursor + o.profile.Offset("cursor_grab"))

	if on {
		return o.writeInt32(grab, cursorShovel)
	}

	current, err := o.readInt32(grab)
	if err != nil {
		return err
	}

	if current == cursorShovel {
		return o.writeInt32(grab, 0)
	}

	return nil
}

func (o *Session) wakeMushrooms(on bool) error {
	if !on {
		return nil
	}

	ok, err := o.inLevel()
	if err != nil || !ok {
		return err
	}

	plants, err := o.plants()
	if err != nil {
		return err
	}

	b := asmkit.NewBuilder()
	for _, plant := range plants {
		if plant.asleep {
			o.code.WakePlant(b, plant.address)
		}
	}

	return o.run(b.Ret())
}

func (o *Session) resetIceTrails(on bool) error {
	if !on {
		return nil
	}

	ok, err := o.inLevel()
	if err != nil || !ok {
		return err
	}

	for row := uint32(0); row < 6; row++ {
		err := o.writeInt32(o.board().Append(o.profile.Offset("ice_trail_cd")+row*4), 1)
		if err != nil {
			return err
		}
	}

	return nil
}

func (o *Session) toggleCloudSave(on bool) error {
	if _, ok := o.profile.Patch(cloudSavePatch); !ok {
		return nil
	}

	return o.setHack(cloudSavePatch, on)
}
