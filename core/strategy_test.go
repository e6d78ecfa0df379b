package core

import "testing"

func TestResolveStrategy(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		reject  bool
		want    Strategy
		wantErr bool
	}{
		{"empty defaults to hybrid", "", false, StrategyHybrid, false},
		{"empty defaults to hybrid even when rejecting", "", true, StrategyHybrid, false},
		{"known value passes", "collaborative", true, StrategyCollaborative, false},
		{"known value passes content_based", "content_based", false, StrategyContentBased, false},
		{"unknown falls back when permissive", "magic", false, StrategyHybrid, false},
		{"unknown rejected when strict", "magic", true, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveStrategy(tt.raw, tt.reject)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !IsInvalidStrategy(err) {
					t.Errorf("error is not INVALID_STRATEGY: %v", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPreferredDifficulty(t *testing.T) {
	tests := []struct {
		skill SkillLevel
		want  Difficulty
	}{
		{SkillNovice, DifficultyBeginner},
		{SkillIntermediate, DifficultyIntermediate},
		{SkillExpert, DifficultyAdvanced},
		{SkillLevel("unknown"), DifficultyIntermediate},
	}
	for _, tt := range tests {
		u := &User{ID: "u", SkillLevel: tt.skill}
		if got := u.PreferredDifficulty(); got != tt.want {
			t.Errorf("PreferredDifficulty(%s) = %s, want %s", tt.skill, got, tt.want)
		}
	}
}

func TestEventIsPositive(t *testing.T) {
	tests := []struct {
		name  string
		ev    Event
		want  bool
	}{
		{"complete is positive", Event{Type: EventComplete}, true},
		{"like is positive", Event{Type: EventLike}, true},
		{"view is not", Event{Type: EventView}, false},
		{"quiz at threshold is positive", Event{Type: EventQuizScore, Value: 80}, true},
		{"quiz below threshold is not", Event{Type: EventQuizScore, Value: 79.9}, false},
		{"bookmark is not", Event{Type: EventBookmark}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ev.IsPositive(80); got != tt.want {
				t.Errorf("IsPositive = %v, want %v", got, tt.want)
			}
		})
	}
}
