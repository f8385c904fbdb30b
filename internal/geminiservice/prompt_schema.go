package geminiservice

/* =================================================================================
							GEMINI SCHEMA DEFINITION
	This is the core structure that tells Gemini how to format its JSON response
=================================================================================*/

// GeminiSchema defines the structure for "Controlled Generation" (Structured Output).
type GeminiSchema struct {
	// Type defines the data type (e.g., "OBJECT", "ARRAY", "STRING", "INTEGER").
	Type string `json:"type"`

	// Format specifies data format, primarily used for "enum" validation.
	Format string `json:"format,omitempty"`

	// Description explains the field's purpose to the AI.
	Description string `json:"description,omitempty"`

	// Properties maps field names to their child schemas (used when Type is "OBJECT").
	Properties map[string]*GeminiSchema `json:"properties,omitempty"`

	// Items defines the schema for elements within an array (used when Type is "ARRAY").
	Items *GeminiSchema `json:"items,omitempty"`

	// Required lists the field names that the AI MUST include in the response.
	Required []string `json:"required,omitempty"`

	// Enum lists valid specific string values for fields with restricted options.
	Enum []string `json:"enum,omitempty"`
}

/* =================================================================================
							DEFAULT PROMPTS
	Seeded into the template store when a name has no version yet.
=================================================================================*/

const DefaultNutritionPrompt = `You are a professional nutritionist. Identify every food in the photo and estimate its nutrition.
Respond with JSON only, no markdown, in exactly this shape:
{"foods":[{"foodName":"string","servingSize":"string","calories":number,"protein":number,"carbohydrates":number,"fat":number,"fiber":number,"sugar":number,"sodium":number}]}
Use grams for protein, carbohydrates, fat, fiber and sugar, milligrams for sodium and kcal for calories.
Numbers must be plain numbers without units. If no food is visible, return {"foods":[]}.`

const DefaultWorkoutPlanPrompt = `You are a certified strength and conditioning coach.
Design training sessions using ONLY exercises from the provided list, spelled exactly as listed.
Each session needs 3 to 6 exercises. Each exercise lists its sets with weight in kg, reps and restSeconds.
Respond with JSON only, no markdown, in exactly this shape:
{"plans":[{"name":"string","plannedDate":"YYYY-MM-DD","exercises":[{"exerciseName":"string","sets":[{"weight":number,"reps":number,"restSeconds":number}]}]}]}`

/* =================================================================================
							RESPONSE SCHEMAS
=================================================================================*/

var NutritionSchema = &GeminiSchema{
	Type: "OBJECT",
	Properties: map[string]*GeminiSchema{
		"foods": {
			Type: "ARRAY",
			Items: &GeminiSchema{
				Type: "OBJECT",
				Properties: map[string]*GeminiSchema{
					"foodName":      {Type: "STRING"},
					"servingSize":   {Type: "STRING", Description: "Portion with unit, e.g. '1 bowl' or '150 g'"},
					"calories":      {Type: "NUMBER", Description: "kcal"},
					"protein":       {Type: "NUMBER", Description: "grams"},
					"carbohydrates": {Type: "NUMBER", Description: "grams"},
					"fat":           {Type: "NUMBER", Description: "grams"},
					"fiber":         {Type: "NUMBER", Description: "grams"},
					"sugar":         {Type: "NUMBER", Description: "grams"},
					"sodium":        {Type: "NUMBER", Description: "milligrams"},
				},
				Required: []string{"foodName", "calories"},
			},
		},
	},
	Required: []string{"foods"},
}

var WorkoutPlanSchema = &GeminiSchema{
	Type: "OBJECT",
	Properties: map[string]*GeminiSchema{
		"plans": {
			Type: "ARRAY",
			Items: &GeminiSchema{
				Type: "OBJECT",
				Properties: map[string]*GeminiSchema{
					"name":        {Type: "STRING"},
					"plannedDate": {Type: "STRING", Description: "YYYY-MM-DD inside the requested window"},
					"exercises": {
						Type: "ARRAY",
						Items: &GeminiSchema{
							Type: "OBJECT",
							Properties: map[string]*GeminiSchema{
								"exerciseName": {Type: "STRING", Description: "Exact name from the allowed list"},
								"sets": {
									Type: "ARRAY",
									Items: &GeminiSchema{
										Type: "OBJECT",
										Properties: map[string]*GeminiSchema{
											"weight":      {Type: "NUMBER"},
											"reps":        {Type: "INTEGER"},
											"restSeconds": {Type: "INTEGER"},
										},
									},
								},
							},
							Required: []string{"exerciseName"},
						},
					},
				},
				Required: []string{"name", "exercises"},
			},
		},
	},
	Required: []string{"plans"},
}
