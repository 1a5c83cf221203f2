package scoring

// Category is a family of risk phrases sharing one penalty.
type Category string

const (
	CategorySensational Category = "sensational"
	CategoryUrgency     Category = "urgency"
	CategoryEmotional   Category = "emotional"
	CategoryFakeNews    Category = "fake-news"
	CategoryUnverified  Category = "unverified"
)

// phraseList is one category with its per-match penalty.
type phraseList struct {
	category Category
	penalty  int
	phrases  []string
}

// defaultLists are evaluated in order; matches are reported in this order.
var defaultLists = []phraseList{
	{
		category: CategorySensational,
		penalty:  8,
		phrases: []string{
			"breaking", "shocking", "viral", "unbelievable", "exclusive",
			"amazing", "incredible", "outrageous", "explosive", "devastating",
			"stunning", "mind-blowing", "you won't believe", "doctors hate",
			"this one trick", "secret", "hidden", "exposed", "revealed", "leaked",
		},
	},
	{
		category: CategoryUrgency,
		penalty:  12,
		phrases: []string{
			"act now", "share immediately", "before it's deleted", "limited time",
			"urgent", "breaking news", "just in", "you must see",
			"watch before removed", "share this now", "spread the word",
			"tell everyone", "forward this", "don't ignore", "this will shock you",
		},
	},
	{
		category: CategoryEmotional,
		penalty:  6,
		phrases: []string{
			"fear", "anger", "hate", "miracle", "disaster", "terrifying",
			"horrifying", "outrage", "scandal", "conspiracy", "cover-up", "lies",
			"fraud", "corruption", "betrayal", "warning", "alert", "danger",
			"threat", "emergency",
		},
	},
	{
		category: CategoryFakeNews,
		penalty:  20,
		phrases: []string{
			"fake news", "alternative facts", "they don't want you to know",
			"mainstream media won't tell you", "the truth they're hiding",
			"government cover-up", "big pharma", "big tech", "deep state",
			"illuminati", "one simple trick", "doctors are shocked",
			"scientists baffled", "nobody is talking about", "media silent",
			"censored", "banned", "suppressed", "they're lying", "don't trust",
			"wake up", "sheeple", "wake up people",
		},
	},
	{
		category: CategoryUnverified,
		penalty:  15,
		phrases: []string{
			"sources say", "according to insiders", "unnamed sources",
			"anonymous tip", "rumors suggest", "allegedly", "reportedly",
			"supposedly", "claims", "purportedly", "unconfirmed reports",
			"unverified", "unsubstantiated",
		},
	},
}
