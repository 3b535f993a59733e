package redflag

// category maps an emergency type to the trigger phrases that indicate it.
// Categories are scanned in order; within a category the first matching
// phrase wins. Phrases follow IMNCI / WHO IMCI / IAP / AIIMS danger signs.
type category struct {
	Type     string
	Patterns []string
}

var categories = []category{
	// Neurological
	{"convulsions_seizures", []string{
		"convulsion", "seizure", "fits", "jerking", "twitching", "shaking",
		"uncontrolled movement", "spasms", "tremors", "stiff", "rigid",
	}},
	{"unconsciousness", []string{
		"unconscious", "passed out", "not responding", "no response", "blacked out",
		"fainted", "collapsed", "not moving", "limp", "floppy",
	}},
	{"altered_consciousness", []string{
		"very sleepy", "extremely drowsy", "hard to wake", "won't wake up",
		"difficult to wake", "not alert", "confused", "disoriented",
	}},

	// Respiratory
	{"respiratory_distress", []string{
		"fast breathing", "rapid breathing", "breathing fast", ">60 breaths", "60+ breaths",
		"breathing difficulty", "struggling to breathe", "shortness of breath",
		"breathing problems", "respiratory distress",
	}},
	{"chest_indrawing", []string{
		"chest indrawing", "chest sinking", "chest retraction", "ribs showing",
		"chest pulling in", "chest caving", "sternal retraction",
	}},
	{"grunting", []string{
		"grunting", "grunting sounds", "noisy breathing", "wheezing", "stridor",
	}},
	{"cyanosis", []string{
		"blue lips", "blue face", "blue skin", "cyanosis", "blue extremities",
		"blue fingers", "blue toes", "bluish", "purple", "discolored",
	}},

	// Feeding and hydration
	{"feeding_refusal", []string{
		"not feeding", "refusing food", "no interest in feeding", "won't eat", "not eating",
		"refusing breast", "refusing bottle", "no appetite", "not drinking",
		"refusing to feed", "feeding problems", "feeding issues",
	}},
	{"dehydration", []string{
		"sunken eyes", "no urination", "no pee", "dehydrated", "dry mouth",
		"no wet diapers", "dry diapers", "no tears", "crying without tears",
		"very thirsty", "excessive thirst",
	}},

	// Temperature
	{"high_fever", []string{
		"fever >38.5", "temperature >38.5", "high fever", "very hot", "burning up",
		"feverish", "hot to touch", "very high temperature", "fever above 38.5",
	}},
	{"hypothermia", []string{
		"low temperature", "hypothermia", "feels cold", "very cold",
		"cold to touch", "chilled", "shivering", "cold extremities",
	}},

	// Jaundice and liver
	{"jaundice_danger", []string{
		"yellow below knees", "white stool", "grey stool", "pale stool",
		"yellow skin", "yellow eyes", "jaundice", "yellowing", "pale poop",
		"clay colored stool", "acholic stool",
	}},

	// Swelling
	{"severe_swelling", []string{
		"swollen feet", "swollen face", "swollen body", "severe swelling",
		"puffy", "edema", "fluid retention", "swollen all over", "bloated",
	}},

	// Gastrointestinal
	{"bloody_stools", []string{
		"bloody stool", "blood in stool", "bloody poop", "blood in poop",
		"red stool", "black stool", "tarry stool", "bloody diarrhea",
	}},
	{"vomiting_everything", []string{
		"vomiting everything", "throwing up everything", "can't keep anything down",
		"projectile vomiting", "severe vomiting", "vomiting repeatedly",
		"vomiting all the time", "continuous vomiting",
	}},

	// General distress
	{"weak_cry", []string{
		"weak cry", "no cry", "absent cry", "barely crying", "feeble cry",
		"soft cry", "quiet cry", "no sound", "silent cry",
	}},
	{"lethargy", []string{
		"lethargic", "very tired", "exhausted", "no energy", "weak",
		"listless", "not active", "very quiet", "unusually quiet",
	}},

	// Time-extended variants
	{"extended_feeding_refusal", []string{
		"not eating for hours", "hasn't fed for hours", "refusing food for hours",
		"no feeding for 6 hours", "hasn't eaten for 6 hours", "feeding refusal for hours",
	}},
	{"extended_no_urination", []string{
		"no pee for hours", "no wet diaper for hours", "hasn't peed for hours",
		"no urination for 6 hours", "dry diapers for hours",
	}},
}

// broadPhrases are ambiguous triggers that many healthy-baby messages contain.
// They only count when the message also carries a duration or persistence cue.
var broadPhrases = map[string]bool{
	"not eating":  true,
	"very tired":  true,
	"weak":        true,
	"exhausted":   true,
	"no appetite": true,
	"very quiet":  true,
	"not active":  true,
	"stiff":       true,
	"shaking":     true,
}

// durationCues unlock broad phrases.
var durationCues = []string{
	"hour", "since", " for ", "all day", "all night", "days", "keeps", "constantly",
}

// negations directly before a trigger phrase cancel it.
var negations = map[string]bool{
	"not":     true,
	"no":      true,
	"never":   true,
	"without": true,
	"isn't":   true,
	"wasn't":  true,
	"stopped": true,
}

// emergencyLanguage is the register parents use when something is wrong,
// and timePressure marks sudden deterioration. Either one combined with a
// concerning symptom keyword produces a medium-severity flag.
var emergencyLanguage = []string{
	"emergency", "urgent", "serious", "worried", "scared", "panicked",
	"terrible", "awful", "very bad", "extremely", "severely",
	"just happened", "suddenly", "all of a sudden", "quickly", "rapidly",
	"getting worse", "worsening", "deteriorating",
}

var concerningSymptoms = []string{
	"breathing", "feeding", "temperature", "color", "movement",
	"consciousness", "crying", "sleeping", "eating", "drinking",
}

// reassurances suppress ambiguous and medium matches. They never override a
// high-severity category match.
var reassurances = []string{
	"playing normally", "no fever", "feeding well", "sleeping well",
	"very active", "active", "happy and alert", "looks fine", "seems fine",
	"looks comfortable", "normal feeding", "behaving normally", "smiling",
}
