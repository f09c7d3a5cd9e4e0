package funnel

import "testing"

func TestResolveStageAliasRoundTrip(t *testing.T) {
	// Every alias must resolve to the same canonical stage as the
	// canonical name itself.
	for alias, canonical := range aliases {
		gotAlias, okAlias := ResolveStage(alias)
		gotCanonical, okCanonical := ResolveStage(canonical)
		if !okAlias || !okCanonical {
			t.Fatalf("alias %q or canonical %q not recognized", alias, canonical)
		}
		if gotAlias != gotCanonical {
			t.Errorf("ResolveStage(%q) = %q, want %q", alias, gotAlias, gotCanonical)
		}
	}
}

func TestResolveStageUnknown(t *testing.T) {
	got, ok := ResolveStage("garbage_status")
	if ok {
		t.Errorf("expected unknown status to be unresolved, got %q", got)
	}
}

func TestAdvance(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		dir      Direction
		want     string
		wantNoop bool
	}{
		{"next from new", "new", Next, "contacted", false},
		{"next through alias", "negotiating", Next, "reserved", false},
		{"prev through alias", "sold", Prev, "reserved", false},
		{"next from last stage is noop", "delivered", Next, "delivered", true},
		{"prev from first stage is noop", "new", Prev, "new", true},
		{"next from lost re-enters at contacted", "lost", Next, "contacted", false},
		{"prev from lost restarts at new", "lost", Prev, "new", false},
		{"prev from rejected returns to pre_approved", "rejected", Prev, "pre_approved", false},
		{"next from rejected re-enters at contacted", "rejected", Next, "contacted", false},
		{"next from unknown status re-enters at contacted", "whatever", Next, "contacted", false},
		{"prev from unknown status restarts at new", "whatever", Prev, "new", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Advance(tc.status, tc.dir)
			if got.NewStage != tc.want || got.Noop != tc.wantNoop {
				t.Errorf("Advance(%q, %v) = {%q noop=%v}, want {%q noop=%v}",
					tc.status, tc.dir, got.NewStage, got.Noop, tc.want, tc.wantNoop)
			}
		})
	}
}

func TestSetDirect(t *testing.T) {
	if got, ok := SetDirect("visit_scheduled"); !ok || got != StageScheduled {
		t.Errorf("SetDirect(visit_scheduled) = %q, %v", got, ok)
	}
	if _, ok := SetDirect("not_a_stage"); ok {
		t.Error("SetDirect should reject unknown stage names")
	}
}

func TestScoreForTracksEveryOrderedStage(t *testing.T) {
	prev := -1
	for _, stage := range Ordered {
		score := ScoreFor(stage)
		if score <= prev {
			t.Errorf("score for %q (%d) should increase along the funnel", stage, score)
		}
		prev = score
	}
	if ScoreFor("lost") != 0 {
		t.Errorf("lost should score 0, got %d", ScoreFor("lost"))
	}
	if ScoreFor("unknown_thing") != 0 {
		t.Errorf("out-of-table status should score 0")
	}
}

func TestLabelsResolveBack(t *testing.T) {
	// What the bot displays must be accepted when typed back, accents
	// included: "etapa juan a negociación" has to land on negotiation.
	stages := append(append([]string{}, Ordered...), StageLost, StageRejected, StagePreApproved)
	for _, stage := range stages {
		got, ok := ResolveStage(Label(stage))
		if !ok || got != stage {
			t.Errorf("ResolveStage(Label(%q)) = %q, %v; want %q", stage, got, ok, stage)
		}
	}
}
