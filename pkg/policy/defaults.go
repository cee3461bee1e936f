// pkg/policy/defaults.go
package policy

// Default returns the built-in policy for the grocery and vegetable catalog.
func Default() *Policy {
	return &Policy{
		Version: "1.0.0",
		Currency: CurrencyPolicy{
			Symbol:  "₹",
			Markers: []string{"₹", "rs", "inr", "rupees", "rupee"},
		},
		Categories: []Term{
			{Name: "Vegetables", Aliases: []string{"vegetable", "vegetables", "veg", "veggie", "veggies", "sabzi"}},
			{Name: "Grocery", Aliases: []string{"grocery", "groceries", "kirana", "staples"}},
		},
		Products: []Term{
			{Name: "rice", Aliases: []string{"rice", "basmati", "chawal"}},
			{Name: "dal", Aliases: []string{"dal", "daal", "dhal", "toor", "lentil", "lentils"}},
			{Name: "atta", Aliases: []string{"atta", "flour", "wheat"}},
			{Name: "oil", Aliases: []string{"oil", "sunflower"}},
			{Name: "tomato", Aliases: []string{"tomato", "tomatoes", "tamatar"}},
			{Name: "onion", Aliases: []string{"onion", "onions", "pyaz", "pyaaz"}},
		},
		Fuzzy: FuzzyPolicy{MinSimilarity: 0.8, MinLength: 4},
		Stopwords: []string{
			"a", "an", "the", "any", "some", "all", "me", "i", "my", "we", "you", "your",
			"is", "are", "am", "be", "there", "it", "its", "this", "that", "these", "those",
			"show", "find", "search", "get", "give", "list", "tell", "see", "look", "looking",
			"want", "need", "buy", "have", "has", "do", "does", "got", "can", "could", "would",
			"please", "pls", "hi", "hello", "hey", "thanks", "thank", "help",
			"for", "of", "with", "and", "or", "to", "from", "by", "about", "on", "what", "which", "where", "who",
			"price", "prices", "cost", "costs", "priced", "cheap", "cheaper", "cheapest", "budget",
			"product", "products", "item", "items", "available", "stuff", "something", "else",
			"ones", "one", "more", "other", "others", "options", "option", "next",
			"sell", "sells", "selling", "store", "stores", "shop", "shops", "seller", "sellers",
			"nearby", "near", "in", "at", "around", "than", "less", "under", "below", "within",
			"upto", "up", "over", "above", "between", "max", "maximum", "min", "minimum", "least",
			"rs", "inr", "rupees", "rupee", "₹", "kg", "liter", "litre",
		},
		BusinessPhrases: []string{
			"who sells", "who sell", "who has", "who stocks", "sellers", "seller",
			"store", "stores", "shop", "shops", "near me", "nearby",
		},
		CategoryPhrases: []string{
			"where can i buy", "where to buy", "where can i get", "where do i buy",
		},
		MaxPricePhrases: []string{
			"under", "below", "less than", "within", "upto", "up to", "cheaper than",
			"not more than", "no more than", "at most", "max", "maximum", "budget",
		},
		MinPricePhrases: []string{
			"above", "over", "more than", "greater than", "costlier than", "at least", "min", "minimum",
		},
		RangePhrases:         []string{"between", "from"},
		LocationPrepositions: []string{"in", "at", "near", "around"},
		Continuation: ContinuationPolicy{
			Cheaper: []string{
				"cheaper", "cheaper ones", "cheaper options", "something cheaper",
				"less expensive", "lower price", "anything cheaper",
			},
			More: []string{
				"more", "show more", "more options", "other options", "any more",
				"what else", "others", "next",
			},
			CheaperFactor: 0.5,
		},
		RelaxOnEmpty: true,
		Suggestions: []string{
			"Show me rice",
			"Products under Rs.50",
			"Where can I buy vegetables?",
			"Grocery stores near me",
			"Who sells dal?",
			"Do you have apples?",
		},
	}
}
