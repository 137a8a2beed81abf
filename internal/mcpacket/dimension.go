package mcpacket

import "sort"

// Dimension, Biome and DimensionCodec are JoinGame's NBT payloads. Field
// names follow Minecraft's registry naming, not Go convention, via `nbt`
// struct tags — the equivalent of the original's serde rename attributes.
//
// DimensionCodec's and Biome's wire shape nests maps and lists in a way
// that doesn't match their natural Go field layout (a registry entry is
// really {name, id, element}, and a biome's "effects" is a sub-object
// synthesized from flat fields), so toWire builds the exact structure
// the NBT encoder should walk rather than adding tags the flat type can't
// express.

type Dimension struct {
	RespawnAnchorWorks bool    `nbt:"respawn_anchor_works"`
	BedWorks           bool    `nbt:"bed_works"`
	PiglinSafe         bool    `nbt:"piglin_safe"`
	HasRaids           bool    `nbt:"has_raids"`
	HasSkylight        bool    `nbt:"has_skylight"`
	Infiniburn         string  `nbt:"infiniburn"`
	Effects            string  `nbt:"effects"`
	AmbientLight       float32 `nbt:"ambient_light"`
	LogicalHeight      int32   `nbt:"logical_height"`
	CoordinateScale    float64 `nbt:"coordinate_scale"`
	Natural            bool    `nbt:"natural"`
	HasCeiling         bool    `nbt:"has_ceiling"`
	Ultrawarm          bool    `nbt:"ultrawarm"`
}

type Biome struct {
	Precipitation string
	Depth         float32
	Temperature   float32
	Scale         float32
	Downfall      float32
	Category      string

	ColorSky      int32
	ColorWater    int32
	ColorFog      int32
	ColorWaterFog int32

	MoodTickDelay         int32
	MoodOffset            float64
	MoodSound             string
	MoodBlockSearchExtent int32
}

type DimensionCodec struct {
	Dimensions map[string]Dimension
	Biomes     map[string]Biome
}

type biomeMoodSoundWire struct {
	TickDelay         int32   `nbt:"tick_delay"`
	Offset            float64 `nbt:"offset"`
	Sound             string  `nbt:"sound"`
	BlockSearchExtent int32   `nbt:"block_search_extent"`
}

type biomeEffectsWire struct {
	SkyColor      int32              `nbt:"sky_color"`
	WaterFogColor int32              `nbt:"water_fog_color"`
	FogColor      int32              `nbt:"fog_color"`
	WaterColor    int32              `nbt:"water_color"`
	MoodSound     biomeMoodSoundWire `nbt:"mood_sound"`
}

type biomeWire struct {
	Precipitation string           `nbt:"precipitation"`
	Depth         float32          `nbt:"depth"`
	Temperature   float32          `nbt:"temperature"`
	Scale         float32          `nbt:"scale"`
	Downfall      float32          `nbt:"downfall"`
	Category      string           `nbt:"category"`
	Effects       biomeEffectsWire `nbt:"effects"`
}

func (b Biome) toWire() biomeWire {
	return biomeWire{
		Precipitation: b.Precipitation,
		Depth:         b.Depth,
		Temperature:   b.Temperature,
		Scale:         b.Scale,
		Downfall:      b.Downfall,
		Category:      b.Category,
		Effects: biomeEffectsWire{
			SkyColor:      b.ColorSky,
			WaterFogColor: b.ColorWaterFog,
			FogColor:      b.ColorFog,
			WaterColor:    b.ColorWater,
			MoodSound: biomeMoodSoundWire{
				TickDelay:         b.MoodTickDelay,
				Offset:            b.MoodOffset,
				Sound:             b.MoodSound,
				BlockSearchExtent: b.MoodBlockSearchExtent,
			},
		},
	}
}

type registryEntryWire[V any] struct {
	Name    string `nbt:"name"`
	ID      int32  `nbt:"id"`
	Element V      `nbt:"element"`
}

type registryCategoryWire[V any] struct {
	Type  string              `nbt:"type"`
	Value []registryEntryWire[V] `nbt:"value"`
}

type dimensionCodecWire struct {
	DimensionType registryCategoryWire[Dimension] `nbt:"minecraft:dimension_type"`
	WorldgenBiome registryCategoryWire[biomeWire] `nbt:"minecraft:worldgen/biome"`
}

const (
	dimensionTypeCategory = "minecraft:dimension_type"
	biomeCategory         = "minecraft:worldgen/biome"
)

// toWire assembles the codec's map-keyed dimensions/biomes into the
// ordinal {type, value: [{name, id, element}]} shape the client expects,
// grounded on DimensionCodec::serialize in the original NBT writer. Keys
// are sorted so the registry indices — and the encoded bytes — are
// deterministic.
func (c DimensionCodec) toWire() dimensionCodecWire {
	dimNames := sortedKeysDimension(c.Dimensions)
	dimEntries := make([]registryEntryWire[Dimension], len(dimNames))
	for i, name := range dimNames {
		dimEntries[i] = registryEntryWire[Dimension]{Name: name, ID: int32(i), Element: c.Dimensions[name]}
	}

	biomeNames := sortedKeysBiome(c.Biomes)
	biomeEntries := make([]registryEntryWire[biomeWire], len(biomeNames))
	for i, name := range biomeNames {
		biomeEntries[i] = registryEntryWire[biomeWire]{Name: name, ID: int32(i), Element: c.Biomes[name].toWire()}
	}

	return dimensionCodecWire{
		DimensionType: registryCategoryWire[Dimension]{Type: dimensionTypeCategory, Value: dimEntries},
		WorldgenBiome: registryCategoryWire[biomeWire]{Type: biomeCategory, Value: biomeEntries},
	}
}

func sortedKeysDimension(m map[string]Dimension) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeysBiome(m map[string]Biome) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DefaultDimension and DefaultBiome are the single flat-overworld
// registry entries the join flow advertises (spec.md §8 scenario 4).
var DefaultDimension = Dimension{
	RespawnAnchorWorks: true,
	BedWorks:           true,
	PiglinSafe:         false,
	HasRaids:           false,
	HasSkylight:        true,
	Infiniburn:         "minecraft:infiniburn_overworld",
	Effects:            "minecraft:overworld",
	AmbientLight:       0,
	LogicalHeight:      256,
	CoordinateScale:    1.0,
	Natural:            true,
	HasCeiling:         false,
	Ultrawarm:          false,
}

var DefaultBiome = Biome{
	Precipitation:         "rain",
	Depth:                 0.125,
	Temperature:           0.8,
	Scale:                 0.05,
	Downfall:              0.4,
	Category:              "plains",
	ColorSky:              7907327,
	ColorWater:            4159204,
	ColorFog:              12638463,
	ColorWaterFog:         329011,
	MoodTickDelay:         6000,
	MoodOffset:            2.0,
	MoodSound:             "minecraft:ambient.cave",
	MoodBlockSearchExtent: 8,
}

var DefaultDimensionCodec = DimensionCodec{
	Dimensions: map[string]Dimension{"minecraft:overworld": DefaultDimension},
	Biomes:     map[string]Biome{"minecraft:plains": DefaultBiome},
}
