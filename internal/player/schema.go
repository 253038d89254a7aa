// Package player defines the fixed attribute schema of a player record and
// validates raw request bodies against it.
package player

// Kind is the numeric kind a schema field accepts.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
)

func (k Kind) String() string {
	if k == KindFloat {
		return "float"
	}
	return "int"
}

// Field is one named attribute of the schema.
type Field struct {
	Name string
	Kind Kind
}

// PositionField carries the integer position code.
const PositionField = "player_positions"

// Schema is the ordered attribute list shared by validation and inference.
// Model artifacts are trained on columns in exactly this order.
var Schema = []Field{
	{PositionField, KindInt},
	{"age", KindInt},
	{"height_cm", KindInt},
	{"weight_kg", KindInt},
	{"preferred_foot", KindInt},
	{"weak_foot", KindInt},
	{"skill_moves", KindInt},
	{"international_reputation", KindInt},
	{"work_rate", KindInt},

	{"pace", KindFloat},
	{"shooting", KindFloat},
	{"passing", KindFloat},
	{"dribbling", KindFloat},
	{"defending", KindFloat},
	{"physic", KindFloat},

	{"attacking_crossing", KindInt},
	{"attacking_finishing", KindInt},
	{"attacking_heading_accuracy", KindInt},
	{"attacking_short_passing", KindInt},
	{"attacking_volleys", KindInt},

	{"skill_dribbling", KindInt},
	{"skill_curve", KindInt},
	{"skill_fk_accuracy", KindInt},
	{"skill_long_passing", KindInt},
	{"skill_ball_control", KindInt},

	{"movement_acceleration", KindInt},
	{"movement_sprint_speed", KindInt},
	{"movement_agility", KindInt},
	{"movement_reactions", KindInt},
	{"movement_balance", KindInt},

	{"power_shot_power", KindInt},
	{"power_jumping", KindInt},
	{"power_stamina", KindInt},
	{"power_strength", KindInt},
	{"power_long_shots", KindInt},

	{"mentality_aggression", KindInt},
	{"mentality_interceptions", KindInt},
	{"mentality_positioning", KindInt},
	{"mentality_vision", KindInt},
	{"mentality_penalties", KindInt},
	{"mentality_composure", KindFloat},

	{"defending_marking_awareness", KindInt},
	{"defending_standing_tackle", KindInt},
	{"defending_sliding_tackle", KindInt},

	{"goalkeeping_diving", KindInt},
	{"goalkeeping_handling", KindInt},
	{"goalkeeping_kicking", KindInt},
	{"goalkeeping_positioning", KindInt},
	{"goalkeeping_reflexes", KindInt},
	{"goalkeeping_speed", KindInt},
}

var schemaIndex = func() map[string]int {
	idx := make(map[string]int, len(Schema))
	for i, f := range Schema {
		idx[f.Name] = i
	}
	return idx
}()

// FieldNames returns the schema field names in order.
func FieldNames() []string {
	names := make([]string, len(Schema))
	for i, f := range Schema {
		names[i] = f.Name
	}
	return names
}

// Index returns the column index of name, or -1.
func Index(name string) int {
	if i, ok := schemaIndex[name]; ok {
		return i
	}
	return -1
}
