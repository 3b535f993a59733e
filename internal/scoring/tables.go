package scoring

// Severity tables for every screenable condition. Weights, interaction
// factors, and risk thresholds come from IMNCI / WHO / IAP observational
// criteria. Levels within a dimension are ordered most severe first; the
// last level is the no-finding default and always carries weight 0.

func conditionTable() []*conditionSpec {
	return []*conditionSpec{
		pneumoniaSpec(),
		diarrheaSpec(),
		malnutritionSpec(),
		sepsisSpec(),
		jaundiceSpec(),
	}
}

func pneumoniaSpec() *conditionSpec {
	return &conditionSpec{
		Name:        "pneumonia_ari",
		DisplayName: "Pneumonia/Acute Respiratory Infection",
		Dimensions: []dimension{
			{
				Name:    "respiratory_rate",
				Numeric: numericRespiratoryRate,
				NumericLevels: []numericLevel{
					{Above: 70, Level: "very_high"},
					{Above: 60, Level: "high"},
					{Above: 50, Level: "elevated"},
				},
				Levels: []severityLevel{
					{"very_high", 35, []string{"very fast", "extremely fast", ">70", "70+"}},
					{"high", 25, []string{"fast", "rapid", ">60", "60+"}},
					{"elevated", 15, []string{"slightly fast", "elevated"}},
					{"normal", 0, nil},
				},
			},
			{
				Name: "chest_indrawing",
				Levels: []severityLevel{
					{"severe", 40, []string{"severe", "very bad", "extreme", "terrible"}},
					{"moderate", 30, []string{"moderate", "bad", "clearly visible"}},
					{"mild", 20, []string{"mild", "slight", "a little"}},
					{"none", 0, nil},
				},
			},
			{
				Name: "grunting",
				Levels: []severityLevel{
					{"continuous", 35, []string{"continuous", "all the time", "constantly"}},
					{"frequent", 25, []string{"frequent", "often", "regularly"}},
					{"occasional", 15, []string{"occasional", "sometimes", "now and then"}},
					{"none", 0, nil},
				},
			},
			{
				Name: "cyanosis",
				Levels: []severityLevel{
					{"severe", 50, []string{"severe", "very blue", "extremely blue", "purple"}},
					{"mild", 30, []string{"mild", "slightly blue", "bluish"}},
					{"none", 0, nil},
				},
			},
			{
				Name: "feeding_status",
				Levels: []severityLevel{
					{"refusing", 30, []string{"refusing", "won't eat", "not eating", "no feeding"}},
					{"poor", 20, []string{"poor", "bad", "very little"}},
					{"reduced", 10, []string{"reduced", "less", "decreased"}},
					{"normal", 0, nil},
				},
			},
		},
		Interactions: []interaction{
			{"respiratory_rate", []string{"high", "very_high"}, "chest_indrawing", []string{"moderate", "severe"}, 1.3},
			{"respiratory_rate", []string{"very_high"}, "cyanosis", []string{"mild", "severe"}, 1.5},
			{"chest_indrawing", []string{"severe"}, "grunting", []string{"frequent", "continuous"}, 1.4},
			{"feeding_status", []string{"refusing"}, "respiratory_rate", []string{"high", "very_high"}, 1.2},
		},
		Thresholds: map[AgeGroup]Thresholds{
			AgeNeonatal:    {Low: 30, Medium: 50, High: 70},
			AgeYoungInfant: {Low: 25, Medium: 45, High: 65},
			AgeOlderInfant: {Low: 20, Medium: 40, High: 60},
		},
		Guidance: guidance{
			Monitoring:      "Monitor breathing rate and effort",
			WarningSigns:    "Increased breathing difficulty, blue lips, refusal to feed",
			ComfortMeasures: "Keep upright position, humidified air if available",
		},
		Questions: []Question{
			{"Is the baby breathing faster than normal?", QuestionYesNo},
			{"Can you see the baby's ribs or chest pulling in when breathing?", QuestionYesNo},
			{"Is the baby making grunting sounds while breathing?", QuestionYesNo},
			{"Does the baby have a cough?", QuestionYesNo},
			{"How many breaths per minute is the baby taking? (Count for 1 minute)", QuestionDescriptive},
			{"Is the baby's nose flaring when breathing?", QuestionYesNo},
			{"Does the baby seem to be working hard to breathe?", QuestionYesNo},
		},
	}
}

func diarrheaSpec() *conditionSpec {
	return &conditionSpec{
		Name:        "diarrhea",
		DisplayName: "Diarrhea",
		Dimensions: []dimension{
			{
				Name:    "stool_frequency",
				Numeric: numericStoolFrequency,
				NumericLevels: []numericLevel{
					{Above: 10, Level: "very_high"},
					{Above: 8, Level: "high"},
					{Above: 5, Level: "increased"},
				},
				Levels: []severityLevel{
					{"very_high", 30, []string{"very frequent", ">10", "10+", "many times"}},
					{"high", 20, []string{"frequent", ">8", "8+", "often"}},
					{"increased", 10, []string{"increased", "more than usual"}},
					{"normal", 0, nil},
				},
			},
			{
				Name: "stool_consistency",
				Levels: []severityLevel{
					{"very_watery", 35, []string{"very watery", "like water", "extremely runny"}},
					{"watery", 25, []string{"watery", "runny", "liquid"}},
					{"loose", 15, []string{"loose", "soft"}},
					{"normal", 0, nil},
				},
			},
			{
				Name: "dehydration_signs",
				Levels: []severityLevel{
					{"severe", 50, []string{"severe", "very bad", "extreme", "sunken eyes", "no tears", "no urine"}},
					{"moderate", 35, []string{"moderate", "bad", "dry mouth", "thirsty"}},
					{"mild", 20, []string{"mild", "slight", "a little"}},
					{"none", 0, nil},
				},
			},
			{
				Name: "vomiting",
				Levels: []severityLevel{
					{"continuous", 30, []string{"continuous", "all the time", "constantly", "everything"}},
					{"frequent", 20, []string{"frequent", "often", "regularly"}},
					{"occasional", 10, []string{"occasional", "sometimes", "now and then"}},
					{"none", 0, nil},
				},
			},
		},
		Interactions: []interaction{
			{"stool_frequency", []string{"very_high"}, "dehydration_signs", []string{"moderate", "severe"}, 1.3},
			{"stool_consistency", []string{"very_watery"}, "vomiting", []string{"frequent", "continuous"}, 1.4},
		},
		Thresholds: map[AgeGroup]Thresholds{
			AgeNeonatal:    {Low: 25, Medium: 45, High: 65},
			AgeYoungInfant: {Low: 20, Medium: 40, High: 60},
			AgeOlderInfant: {Low: 15, Medium: 35, High: 55},
		},
		Guidance: guidance{
			Monitoring:      "Monitor hydration status and stool frequency",
			WarningSigns:    "Decreased urine output, sunken eyes, lethargy",
			ComfortMeasures: "Continue feeding, offer oral rehydration if age-appropriate",
		},
		Questions: []Question{
			{"How many loose or watery stools has the baby had in the last 24 hours?", QuestionDescriptive},
			{"Is the baby's stool watery or runny?", QuestionYesNo},
			{"Has the baby been vomiting?", QuestionYesNo},
			{"Is the baby drinking or feeding normally?", QuestionYesNo},
			{"How many wet diapers has the baby had in the last 6 hours?", QuestionDescriptive},
			{"Are the baby's eyes sunken?", QuestionYesNo},
			{"Does the baby seem thirsty or dehydrated?", QuestionYesNo},
		},
	}
}

func malnutritionSpec() *conditionSpec {
	return &conditionSpec{
		Name:        "malnutrition",
		DisplayName: "Malnutrition",
		Dimensions: []dimension{
			{
				Name: "feeding_pattern",
				Levels: []severityLevel{
					{"refusing", 35, []string{"refusing", "won't eat", "not eating", "no feeding"}},
					{"poor", 25, []string{"poor", "very little", "barely"}},
					{"reduced", 15, []string{"reduced", "less", "decreased"}},
					{"normal", 0, nil},
				},
			},
			{
				Name: "weight_change",
				Levels: []severityLevel{
					{"losing", 30, []string{"losing", "lost weight", "weight loss"}},
					{"slow_gain", 20, []string{"slow", "barely gaining", "not gaining"}},
					{"stable", 10, []string{"stable", "no change", "same weight"}},
					{"gaining", 0, nil},
				},
			},
			{
				Name: "activity_level",
				Levels: []severityLevel{
					{"very_lethargic", 30, []string{"very lethargic", "barely moves", "unresponsive"}},
					{"lethargic", 20, []string{"lethargic", "very tired", "listless"}},
					{"reduced", 10, []string{"reduced", "less active", "quieter"}},
					{"normal", 0, nil},
				},
			},
			{
				Name: "visible_signs",
				Levels: []severityLevel{
					{"severe", 35, []string{"severe", "ribs showing", "wasted"}},
					{"moderate", 25, []string{"moderate", "clearly thin", "bones visible"}},
					{"mild", 15, []string{"mild", "slightly thin", "a little"}},
					{"none", 0, nil},
				},
			},
		},
		Interactions: []interaction{
			{"feeding_pattern", []string{"refusing"}, "weight_change", []string{"losing"}, 1.4},
			{"activity_level", []string{"very_lethargic"}, "visible_signs", []string{"severe"}, 1.3},
			{"feeding_pattern", []string{"poor"}, "weight_change", []string{"slow_gain"}, 1.2},
		},
		Thresholds: map[AgeGroup]Thresholds{
			AgeNeonatal:    {Low: 20, Medium: 40, High: 60},
			AgeYoungInfant: {Low: 25, Medium: 45, High: 65},
			AgeOlderInfant: {Low: 30, Medium: 50, High: 70},
		},
		Guidance: guidance{
			Monitoring:      "Monitor feeding patterns and weight",
			WarningSigns:    "Further feeding refusal, weight loss, lethargy",
			ComfortMeasures: "Encourage frequent small feeds, maintain feeding schedule",
		},
		Questions: []Question{
			{"Has the baby been feeding less than usual?", QuestionYesNo},
			{"How many feeds has the baby taken in the last 24 hours?", QuestionDescriptive},
			{"Does the baby seem less active or energetic?", QuestionYesNo},
			{"Has the baby lost weight recently?", QuestionYesNo},
			{"Are the baby's ribs or bones more visible than before?", QuestionYesNo},
			{"Is the baby's skin loose or wrinkled?", QuestionYesNo},
			{"How long does the baby typically feed for?", QuestionDescriptive},
		},
	}
}

func sepsisSpec() *conditionSpec {
	return &conditionSpec{
		Name:        "neonatal_sepsis",
		DisplayName: "Neonatal Sepsis",
		Dimensions: []dimension{
			{
				Name: "temperature",
				Levels: []severityLevel{
					{"hypothermia", 40, []string{"hypothermia", "below 36", "very cold", "low temperature"}},
					{"high_fever", 35, []string{"high fever", ">38.5", "above 38.5", "burning up"}},
					{"elevated", 20, []string{"elevated", "feverish", "fever", "warm"}},
					{"normal", 0, nil},
				},
			},
			{
				Name: "feeding_status",
				Levels: []severityLevel{
					{"refusing", 35, []string{"refusing", "won't eat", "not eating", "no feeding"}},
					{"poor", 25, []string{"poor", "bad", "very little"}},
					{"reduced", 15, []string{"reduced", "less", "decreased"}},
					{"normal", 0, nil},
				},
			},
			{
				Name: "consciousness",
				Levels: []severityLevel{
					{"unconscious", 50, []string{"unconscious", "not responding", "won't wake"}},
					{"lethargic", 30, []string{"lethargic", "very sleepy", "hard to wake"}},
					{"drowsy", 20, []string{"drowsy", "sleepy"}},
					{"alert", 0, nil},
				},
			},
			{
				Name: "irritability",
				Levels: []severityLevel{
					{"inconsolable", 35, []string{"inconsolable", "won't stop crying", "cannot be calmed"}},
					{"very_irritable", 25, []string{"very irritable", "extremely fussy"}},
					{"irritable", 15, []string{"irritable", "fussy", "cranky"}},
					{"normal", 0, nil},
				},
			},
		},
		Interactions: []interaction{
			{"temperature", []string{"high_fever"}, "consciousness", []string{"lethargic"}, 1.4},
			{"feeding_status", []string{"refusing"}, "irritability", []string{"inconsolable"}, 1.3},
			{"consciousness", []string{"unconscious"}, "temperature", []string{"hypothermia"}, 1.6},
		},
		Thresholds: map[AgeGroup]Thresholds{
			AgeNeonatal:    {Low: 15, Medium: 35, High: 55},
			AgeYoungInfant: {Low: 20, Medium: 40, High: 60},
			AgeOlderInfant: {Low: 25, Medium: 45, High: 65},
		},
		Guidance: guidance{
			Monitoring:      "Monitor temperature, feeding, and consciousness",
			WarningSigns:    "High fever, poor feeding, lethargy, irritability",
			ComfortMeasures: "Maintain normal temperature, continue feeding if possible",
		},
		Questions: []Question{
			{"Does the baby have a fever (temperature above 38°C)?", QuestionYesNo},
			{"Is the baby feeding poorly or refusing feeds?", QuestionYesNo},
			{"Is the baby unusually sleepy or difficult to wake?", QuestionYesNo},
			{"Does the baby seem irritable or inconsolable?", QuestionYesNo},
			{"Is the baby's skin color normal?", QuestionYesNo},
			{"Is the baby breathing normally?", QuestionYesNo},
			{"Has the baby's behavior changed suddenly?", QuestionYesNo},
		},
	}
}

func jaundiceSpec() *conditionSpec {
	return &conditionSpec{
		Name:        "neonatal_jaundice",
		DisplayName: "Neonatal Jaundice",
		Dimensions: []dimension{
			{
				Name: "jaundice_extent",
				Levels: []severityLevel{
					{"below_knees", 40, []string{"below knees", "below the knees", "legs and feet"}},
					{"full_body", 30, []string{"full body", "whole body", "all over"}},
					{"upper_body", 20, []string{"upper body", "chest", "arms"}},
					{"face_only", 10, []string{"face only", "face", "eyes"}},
					{"none", 0, nil},
				},
			},
			{
				Name:    "age_days",
				Numeric: numericAgeDays,
				NumericLevels: []numericLevel{
					{Above: 14, Level: "15_plus"},
					{Above: 7, Level: "8_14"},
					{Above: 3, Level: "4_7"},
				},
				Levels: []severityLevel{
					{"15_plus", 30, []string{"three weeks", "a month", "weeks old"}},
					{"8_14", 20, []string{"two weeks"}},
					{"4_7", 10, []string{"one week", "a week"}},
					{"0_3", 0, nil},
				},
			},
			{
				Name: "feeding_status",
				Levels: []severityLevel{
					{"refusing", 35, []string{"refusing", "won't eat", "not eating", "no feeding"}},
					{"poor", 25, []string{"poor", "bad", "very little"}},
					{"reduced", 15, []string{"reduced", "less", "decreased"}},
					{"normal", 0, nil},
				},
			},
			{
				Name: "stool_color",
				Levels: []severityLevel{
					{"clay_colored", 35, []string{"clay"}},
					{"white", 30, []string{"white"}},
					{"pale", 20, []string{"pale", "grey", "gray"}},
					{"normal", 0, nil},
				},
			},
		},
		Interactions: []interaction{
			{"jaundice_extent", []string{"below_knees"}, "age_days", []string{"15_plus"}, 1.4},
			{"feeding_status", []string{"refusing"}, "stool_color", []string{"white"}, 1.5},
			{"jaundice_extent", []string{"full_body"}, "age_days", []string{"8_14"}, 1.3},
		},
		Thresholds: map[AgeGroup]Thresholds{
			AgeNeonatal:    {Low: 20, Medium: 40, High: 60},
			AgeYoungInfant: {Low: 25, Medium: 45, High: 65},
			AgeOlderInfant: {Low: 30, Medium: 50, High: 70},
		},
		Guidance: guidance{
			Monitoring:      "Monitor jaundice extent and feeding",
			WarningSigns:    "Jaundice spreading to legs, poor feeding, pale stools",
			ComfortMeasures: "Ensure adequate feeding, expose to natural light (not direct sun)",
		},
		Questions: []Question{
			{"Is the baby's skin or eyes yellow?", QuestionYesNo},
			{"How old is the baby in days?", QuestionDescriptive},
			{"Is the yellow color spreading to the baby's arms and legs?", QuestionYesNo},
			{"What color is the baby's stool?", QuestionDescriptive},
			{"Is the baby feeding normally?", QuestionYesNo},
			{"Is the baby sleepy or difficult to wake?", QuestionYesNo},
			{"Has the yellow color appeared suddenly or gradually?", QuestionDescriptive},
		},
	}
}
