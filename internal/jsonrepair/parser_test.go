package jsonrepair

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func firstFood(t *testing.T, v any) map[string]any {
	t.Helper()
	obj, ok := v.(map[string]any)
	require.True(t, ok, "expected object, got %T", v)
	foods, ok := obj["foods"].([]any)
	require.True(t, ok, "expected foods array")
	require.NotEmpty(t, foods)
	food, ok := foods[0].(map[string]any)
	require.True(t, ok)
	return food
}

func TestNutritionParser_Stages(t *testing.T) {
	p := NewNutritionParser()

	tests := []struct {
		name      string
		in        string
		wantStage Stage
		field     string
		want      any
	}{
		{
			name:      "valid json",
			in:        `{"foods":[{"foodName":"egg","calories":80}]}`,
			wantStage: StageDirect,
			field:     "calories",
			want:      float64(80),
		},
		{
			name:      "prose around object",
			in:        "Here is the analysis:\n{\"foods\":[{\"foodName\":\"toast\",\"calories\":120}]}\nEnjoy!",
			wantStage: StageSliced,
			field:     "calories",
			want:      float64(120),
		},
		{
			name:      "trailing comma",
			in:        `{"foods":[{"foodName":"egg","calories":80,}]}`,
			wantStage: StageTrailingCommas,
			field:     "calories",
			want:      float64(80),
		},
		{
			name:      "unquoted unit on numeric field",
			in:        `{"foods": [{"foodName":"rice","calories":200kcal,"protein":4}]}`,
			wantStage: StageUnitValues,
			field:     "calories",
			want:      "200kcal",
		},
		{
			name:      "unquoted serving size",
			in:        `{"foods":[{"foodName":"noodles","servingSize": 1 bowl, "calories": 450}]}`,
			wantStage: StageUnitValues,
			field:     "servingSize",
			want:      "1 bowl",
		},
		{
			name:      "han serving size",
			in:        `{"foods":[{"foodName":"rice","servingSize": 一碗, "calories": 300}]}`,
			wantStage: StageUnitValues,
			field:     "servingSize",
			want:      "一碗",
		},
		{
			name:      "single quoted value with embedded double quote",
			in:        `{"foods":[{"foodName": 'tea "green"', "calories": 5}]}`,
			wantStage: StageSingleQuotes,
			field:     "foodName",
			want:      `tea "green"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, stage := p.ParseStage(tt.in)
			assert.Equal(t, tt.wantStage, stage)
			food := firstFood(t, v)
			assert.Equal(t, tt.want, food[tt.field])
		})
	}
}

func TestNutritionParser_PlainNumbersStayNumbers(t *testing.T) {
	p := NewNutritionParser()
	v := p.Parse(`{"foods":[{"foodName":"apple","calories": 95 ,"sugar":19g,"fat":0.3,}]}`)
	food := firstFood(t, v)
	assert.Equal(t, float64(95), food["calories"])
	assert.Equal(t, "19g", food["sugar"])
	assert.Equal(t, 0.3, food["fat"])
}

func TestNutritionParser_DefaultOnGarbage(t *testing.T) {
	p := NewNutritionParser()
	for _, in := range []string{"", "not json at all", "{", "}{", `{"foods": [ {"a": }`, "```"} {
		v, stage := p.ParseStage(in)
		assert.Equal(t, StageDefault, stage, "input %q", in)
		assert.Equal(t, map[string]any{"foods": []any{}}, v)
	}
}

func TestParser_NeverPanics(t *testing.T) {
	p := NewNutritionParser()
	inputs := []string{
		"'", `"`, ":", `: '`, `{"calories": }`, `{"servingSize":`, "[[[[", `{"fat": "` + "\x00" + `"}`,
		`{"sodium": 5 mg , }`, "\xff\xfe", `{'a': 'b'}`,
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() { p.Parse(in) }, "input %q", in)
	}
}

func TestParser_IdempotentOnValidJSON(t *testing.T) {
	p := NewNutritionParser()
	values := []any{
		map[string]any{"foods": []any{}},
		map[string]any{"note": "he said: 'hi', then left", "n": 1.5},
		[]any{"a", float64(2), true, nil},
		"just a string",
		float64(42),
	}
	for _, want := range values {
		raw, err := json.Marshal(want)
		require.NoError(t, err)

		got, stage := p.ParseStage(string(raw))
		assert.Equal(t, StageDirect, stage)
		assert.Equal(t, want, got)
	}
}

func TestParser_AllowArray(t *testing.T) {
	p := New(Config{AllowArray: true, Default: func() any { return []any{} }})

	v, stage := p.ParseStage(`Sure! [{"name":"Push"},{"name":"Pull"},] Good luck.`)
	assert.Equal(t, StageTrailingCommas, stage)
	arr, ok := v.([]any)
	require.True(t, ok)
	assert.Len(t, arr, 2)

	obj := p.Parse(`text {"plans": []} text`)
	assert.Equal(t, map[string]any{"plans": []any{}}, obj)
}

func TestParser_BracketInLeadingProse(t *testing.T) {
	p := New(Config{AllowArray: true})

	v, stage := p.ParseStage(`Here is your plan [draft 2]: {"plans":[{"name":"Mine"}]}`)
	assert.Equal(t, StageSliced, stage)
	assert.Equal(t, map[string]any{"plans": []any{map[string]any{"name": "Mine"}}}, v)

	v, stage = p.ParseStage(`Plan [v2] below: {"plans":[{"name":"Mine",}],}`)
	assert.Equal(t, StageTrailingCommas, stage)
	assert.Equal(t, map[string]any{"plans": []any{map[string]any{"name": "Mine"}}}, v)
}

func TestSliceCandidates(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		allowArray bool
		want       []string
	}{
		{"object only", `x {"a":1} y`, false, []string{`{"a":1}`}},
		{"array ignored without allowArray", `[1] {"a":1}`, false, []string{`{"a":1}`}},
		{"array then object", `see [1] {"a":[2]}`, true, []string{`[1] {"a":[2]`, `{"a":[2]}`}},
		{"object first", `{"a":[1]} [2]`, true, []string{`{"a":[1]}`}},
		{"plain array", `ok [1,2] done`, true, []string{`[1,2]`}},
		{"nothing to slice", `no json`, true, []string{`no json`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SliceCandidates(tt.in, tt.allowArray))
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence("```JSON {\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence(`{"a":1}`))
}

func TestSingleToDoubleQuotes(t *testing.T) {
	assert.Equal(t, `{"a": "x", "b": "say \"hi\""}`, SingleToDoubleQuotes(`{"a": 'x', "b":'say "hi"'}`))
}
