package prediction

import "sort"

// Field describes one input the form collects for a disease. A nil Encoding
// means the field is numeric; otherwise the submitted string, once trimmed,
// must match one of the encoding keys exactly.
type Field struct {
	Name     string
	Encoding map[string]int
}

// Categorical reports whether the field takes a fixed set of string values.
func (f Field) Categorical() bool { return f.Encoding != nil }

// Options returns the field's accepted values ordered by their encoded code.
// It returns nil for numeric fields.
func (f Field) Options() []string {
	if f.Encoding == nil {
		return nil
	}
	opts := make([]string, 0, len(f.Encoding))
	for v := range f.Encoding {
		opts = append(opts, v)
	}
	sort.Slice(opts, func(i, j int) bool { return f.Encoding[opts[i]] < f.Encoding[opts[j]] })
	return opts
}

// schemas maps disease ids to their ordered input fields. Field order defines
// feature vector order, so it must match the order the models were trained
// with. Names are the form control names as collected, quirks included.
var schemas = map[string][]Field{
	"diabetes": {
		{Name: "pregnancies"},
		{Name: "glucose"},
		{Name: "bloodpressure"},
		{Name: "skinthickness"},
		{Name: "insulin"},
		{Name: "bmi"},
		{Name: "diabetespedigree"},
		{Name: "age"},
	},
	"heart_disease": {
		{Name: "age"},
		{Name: "gender"},
		{Name: "chestpain"},
		{Name: "restingBP"},
		{Name: "serumcholestrol"},
		{Name: "fastingbloodsugar"},
		{Name: "restingrelectro"},
		{Name: "maxheartrate"},
		{Name: "exerciseangia"},
		{Name: "oldpeak"},
		{Name: "slope"},
		{Name: "noofmajorvessels"},
	},
	"breast_cancer": {
		{Name: "age"},
		{Name: "race", Encoding: map[string]int{
			"Black": 0, "Other": 1, "White": 2,
		}},
		{Name: "marital_status", Encoding: map[string]int{
			"Divorced": 0, "Married": 1, "Separated": 2, "Single": 3, "Widowed": 4,
		}},
		{Name: "t_stage", Encoding: map[string]int{
			"T1": 0, "T2": 1, "T3": 2, "T4": 3,
		}},
		{Name: "n_stage", Encoding: map[string]int{
			"N1": 0, "N2": 1, "N3": 2,
		}},
		{Name: "sixth_stage", Encoding: map[string]int{
			"IIA": 0, "IIB": 1, "IIIA": 2, "IIIB": 3, "IIIC": 4,
		}},
		{Name: "differentiate", Encoding: map[string]int{
			"Moderately differentiated": 0,
			"Poorly differentiated":     1,
			"Undifferentiated":          2,
			"Well differentiated":       3,
		}},
		{Name: "grade", Encoding: map[string]int{
			"1": 0, "2": 1, "3": 2, "anaplastic": 3,
		}},
		{Name: "a_stage", Encoding: map[string]int{
			"Distant": 0, "Regional": 1,
		}},
		{Name: "tumor_size"},
		{Name: "estrogen_status", Encoding: map[string]int{
			"Negative": 0, "Positive": 1,
		}},
		{Name: "progesterone_status", Encoding: map[string]int{
			"Negative": 0, "Positive": 1,
		}},
		{Name: "regional_node_examined"},
		{Name: "reginol_node_positive"},
		{Name: "survival_months"},
	},
	"stroke": {
		{Name: "Chest Pain"},
		{Name: "Shortness of Breath"},
		{Name: "Irregular Heartbeat"},
		{Name: "Fatigue & Weakness"},
		{Name: "Dizziness"},
		{Name: "Swelling (Edema)"},
		{Name: "Pain in Neck/Jaw/Shoulder/Back"},
		{Name: "Excessive Sweating"},
		{Name: "Persistent Cough"},
		{Name: "Nausea/Vomiting"},
		{Name: "High Blood Pressure"},
		{Name: "Chest Discomfort (Activity)"},
		{Name: "Cold Hands/Feet"},
		{Name: "Snoring/Sleep Apnea"},
		{Name: "Anxiety/Feeling of Doom"},
		{Name: "Age"},
		{Name: "Stroke Risk (%)"},
	},
}

// Fields returns the ordered field schema for a disease, or nil when the
// disease is unknown.
func Fields(disease string) []Field {
	return schemas[disease]
}

// Encoding returns the categorical encoding for a disease's field, or false
// when the field is numeric or unknown.
func Encoding(disease, field string) (map[string]int, bool) {
	for _, f := range schemas[disease] {
		if f.Name == field && f.Categorical() {
			return f.Encoding, true
		}
	}
	return nil, false
}

// Diseases returns the known disease ids in sorted order.
func Diseases() []string {
	ids := make([]string, 0, len(schemas))
	for id := range schemas {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
