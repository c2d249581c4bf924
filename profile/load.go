package profile

import (
	"embed"
	"fmt"
	"io/fs"
	"path"

	"gopkg.in/yaml.v3"

	"gitlab.com/stephen-fox/pvzkit/conv"
	"gitlab.com/stephen-fox/pvzkit/hack"
)

const (
	catalogFileName = "catalog.yaml"
	buildsDirName   = "builds"
)

//go:embed catalog.yaml builds/*.yaml
var embedded embed.FS

var (
	requiredOffsets = []string{
		"main_object",
		"zombie", "zombie_status", "zombie_dead", "zombie_count_max",
		"plant", "plant_row", "plant_type", "plant_col", "plant_imitater",
		"plant_dead", "plant_squished", "plant_asleep", "plant_count_max", "plant_next_pos",
		"lawn_mower", "lawn_mower_dead", "lawn_mower_count_max",
		"grid_item", "grid_item_type", "grid_item_col", "grid_item_row",
		"grid_item_dead", "grid_item_count_max",
		"cursor", "cursor_grab",
		"slot", "slot_seed_type", "slot_seed_type_im",
		"spawn_preview", "indirect_base", "endless_rounds", "game_paused",
		"block_type", "ice_trail_cd", "spawn_list", "spawn_type",
		"scene", "adventure_level", "sun", "game_clock", "debug_mode",
		"game_mode", "game_ui", "free_planting", "user_data",
		"level", "money", "tree_height",
		"fertilizer", "bug_spray", "chocolate", "tree_food",
		"background_music",
		"zombie_struct_size", "plant_struct_size", "grid_item_struct_size",
		"lawn_mower_struct_size", "slot_seed_struct_size",
	}

	requiredPatches = []string{
		GuardPatch,
		"auto_collect", "zombie_no_falling",
		"fertilizer_unlimited", "bug_spray_unlimited", "chocolate_unlimited", "tree_food_unlimited",
		"planting_anywhere", "planting_anywhere_preview", "planting_anywhere_iz",
		"fast_belt", "lock_shovel",
		"plant_immune_bite", "plant_immune_blast", "plant_immune_burn", "plant_immune_pea",
		"plant_immune_ball", "plant_immune_squish", "plant_immune_spikeweed",
		"plant_immune_spikerock", "plant_immune_zomboss",
		"_plant_immune_bite", "_plant_immune_pea", "_plant_immune_ball", "_plant_immune_spikeweed",
		"zombie_immune_damage", "zombie_immune_type1", "zombie_immune_type2", "zombie_immune_ashes",
		"zombie_immune_cherry", "zombie_immune_jalapeno", "zombie_immune_chomper",
		"zombie_immune_hypno", "zombie_immune_blover", "zombie_immune_nearby",
		"zombie_immune_lawnmower",
		"_zombie_immune_damage", "_zombie_immune_type1", "_zombie_immune_type2", "_zombie_immune_ashes",
		"reload_instantly", "mushrooms_awake", "stop_spawning", "stop_zombies",
		"lock_butter", "no_crater", "no_ice_trail", "zombie_not_explode",
		"hack_spawn_preview", "no_fog", "see_vase", "background_running",
		"disable_delete_userdata", "disable_save_userdata", "unlock_limbo_page",
	}

	requiredRoutines = []string{
		"wisdom_tree", "set_music",
		"put_plant", "put_plant_imitater", "put_plant_iz_style",
		"put_zombie", "put_zomboss", "put_grave", "put_ladder",
		"delete_plant", "delete_lawn_mower", "delete_grid_item",
		"level_complete", "wakeup_plant",
		"generate_spawn_list", "clear_spawn_preview", "update_spawn_preview",
	}
)

type catalogFile struct {
	WindowClass string   `yaml:"window_class"`
	ProductName string   `yaml:"product_name"`
	Executable  string   `yaml:"executable"`
	Titles      []string `yaml:"titles"`
	Builds      []string `yaml:"builds"`
}

type buildFile struct {
	ID          string                  `yaml:"id"`
	Name        string                  `yaml:"name"`
	GOTY        bool                    `yaml:"goty"`
	Signature   signatureFile           `yaml:"signature"`
	BaseAddress uint32                  `yaml:"base_address"`
	Offsets     map[string]uint32       `yaml:"offsets"`
	Patches     map[string][]recordFile `yaml:"patches"`
	Routines    map[string]uint32       `yaml:"routines"`
	Conventions Conventions             `yaml:"conventions"`
}

type signatureFile struct {
	Versions []string `yaml:"versions"`
	Address  uint32   `yaml:"address"`
	Value    uint32   `yaml:"value"`
}

type recordFile struct {
	Address     uint32 `yaml:"address"`
	Replacement string `yaml:"replacement"`
	Original    string `yaml:"original"`
}

// Default returns the embedded catalogue of every supported build.
func Default() (*Catalog, error) {
	return Load(embedded)
}

// DefaultOrExit calls Default. DefaultExitFn is invoked if an
// error occurs.
func DefaultOrExit() *Catalog {
	c, err := Default()
	if err != nil {
		DefaultExitFn(err)
	}
	return c
}

// Load reads catalog.yaml and builds/<id>.yaml for every build the
// catalogue lists from fsys.
func Load(fsys fs.FS) (*Catalog, error) {
	raw, err := fs.ReadFile(fsys, catalogFileName)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s - %w", catalogFileName, err)
	}

	var cf catalogFile
	err = yaml.Unmarshal(raw, &cf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s - %w", catalogFileName, err)
	}

	if cf.WindowClass == "" || cf.ProductName == "" || cf.Executable == "" {
		return nil, fmt.Errorf("%s must set window_class, product_name and executable", catalogFileName)
	}

	if len(cf.Builds) == 0 {
		return nil, fmt.Errorf("%s does not list any builds", catalogFileName)
	}

	catalog := &Catalog{
		WindowClass: cf.WindowClass,
		ProductName: cf.ProductName,
		Executable:  cf.Executable,
		titles:      cf.Titles,
		byID:        make(map[string]*Profile),
	}

	for _, id := range cf.Builds {
		if _, dup := catalog.byID[id]; dup {
			return nil, fmt.Errorf("build %q is listed more than once", id)
		}

		p, err := loadBuild(fsys, path.Join(buildsDirName, id+".yaml"))
		if err != nil {
			return nil, fmt.Errorf("failed to load build %q - %w", id, err)
		}

		if p.id != id {
			return nil, fmt.Errorf("build file for %q has id %q", id, p.id)
		}

		catalog.profiles = append(catalog.profiles, p)
		catalog.byID[id] = p
	}

	return catalog, nil
}

func loadBuild(fsys fs.FS, filePath string) (*Profile, error) {
	raw, err := fs.ReadFile(fsys, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s - %w", filePath, err)
	}

	var bf buildFile
	err = yaml.Unmarshal(raw, &bf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s - %w", filePath, err)
	}

	return newProfile(bf)
}

func newProfile(bf buildFile) (*Profile, error) {
	if bf.ID == "" {
		return nil, fmt.Errorf("id is empty")
	}

	if len(bf.Signature.Versions) == 0 {
		return nil, fmt.Errorf("signature does not list any versions")
	}

	if bf.BaseAddress == 0 {
		return nil, fmt.Errorf("base address is zero")
	}

	for _, name := range requiredOffsets {
		if _, ok := bf.Offsets[name]; !ok {
			return nil, fmt.Errorf("offset %q is missing", name)
		}
	}

	for _, name := range requiredRoutines {
		if bf.Routines[name] == 0 {
			return nil, fmt.Errorf("routine %q is missing", name)
		}
	}

	err := bf.Conventions.validate()
	if err != nil {
		return nil, fmt.Errorf("invalid conventions - %w", err)
	}

	patches := make(map[string]hack.Patch, len(bf.Patches))

	for name, records := range bf.Patches {
		p, err := parsePatch(records)
		if err != nil {
			return nil, fmt.Errorf("patch %q is invalid - %w", name, err)
		}

		patches[name] = p
	}

	for _, name := range requiredPatches {
		if _, ok := patches[name]; !ok {
			return nil, fmt.Errorf("patch %q is missing", name)
		}
	}

	name := bf.Name
	if name == "" {
		name = bf.ID
	}

	return &Profile{
		id:   bf.ID,
		name: name,
		goty: bf.GOTY,
		signature: Signature{
			Versions: bf.Signature.Versions,
			Address:  bf.Signature.Address,
			Value:    bf.Signature.Value,
		},
		baseAddress: bf.BaseAddress,
		offsets:     bf.Offsets,
		patches:     patches,
		routines:    bf.Routines,
		conventions: bf.Conventions,
	}, nil
}

func parsePatch(records []recordFile) (hack.Patch, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("patch has no records")
	}

	p := make(hack.Patch, len(records))

	for i, rf := range records {
		replacement, err := conv.HexArrayStringToBytes(rf.Replacement)
		if err != nil {
			return nil, fmt.Errorf("failed to parse replacement bytes of record %d - %w", i, err)
		}

		original, err := conv.HexArrayStringToBytes(rf.Original)
		if err != nil {
			return nil, fmt.Errorf("failed to parse original bytes of record %d - %w", i, err)
		}

		p[i] = hack.Record{
			Address:     rf.Address,
			Original:    original,
			Replacement: replacement,
		}
	}

	err := p.Validate()
	if err != nil {
		return nil, err
	}

	return p, nil
}
