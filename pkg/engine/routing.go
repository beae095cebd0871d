package engine

// hasSubstantiveAnswer is the exit predicate for linear advancement
// (routing rule 9): a non-trivial utterance was given.
func hasSubstantiveAnswer(userText string) bool {
	return len(Normalize(userText)) >= 3
}

// linearNext is the default next state when a state's exit predicate
// holds and no special rule redirected routing.
var linearNext = map[SalesState]SalesState{
	S0: S1, S1: S2, S2: S3, S3: S4, S4: S5,
	S5: S6, S6: S7, S7: S9, S9: S10, S10: S11, S11: S12,
	// S8, S12 have no default linear successor: S8 returns to the
	// presentation state it interrupted, S12 is terminal.
}

// Route implements spec.md §4.1's total transition function
// (state, intent-set) -> state, applying the nine numbered rules in
// priority order. Every (state, intents) pair yields a defined next
// state; S12 has no out-edges (checked first).
func Route(c *ConversationState, intents Intents, userText string) SalesState {
	cur := c.State

	if cur.IsTerminal() {
		return S12
	}

	// Rule 1: hostile or hard-refusal intents at any non-terminal state.
	if intents.Hostile || (intents.NotInterested && intents.PermissionNo) {
		return S12
	}

	// Rule 2: "who is this" - one-turn identification, do not advance.
	if intents.WhoIsThis {
		return cur
	}

	// Rule 3: tech-issue counter. The counter saturates at 2 (invariant:
	// never exceeds 2); a third occurrence exits without incrementing
	// further.
	if intents.TechIssue {
		if c.TechIssueCount < 2 {
			return cur
		}
		return S12
	}

	// Rule 4: "no time".
	if intents.NoTime {
		if cur == S0 {
			return S1
		}
		return S12
	}

	// Rule 5: permission at S1.
	if cur == S1 {
		if intents.PermissionNo {
			return S12
		}
		if intents.PermissionYes {
			return S2
		}
	}

	// Rule 6: objections in presentation, and resolution back.
	if intents.Guarded && (cur == S6 || cur == S7) {
		return S8
	}
	if cur == S8 && !intents.Guarded {
		if c.PreviousPresentationState != 0 || c.PreviousPresentationState == S6 || c.PreviousPresentationState == S7 {
			return c.PreviousPresentationState
		}
		return S6
	}

	// Rule 7: scheduling.
	if intents.Schedule && cur >= S6 {
		return S11
	}
	if cur == S11 && intents.PermissionNo {
		return S10
	}
	if cur == S10 && intents.PermissionNo {
		return S12
	}

	// Rule 8: confirmation / resonance / hesitation shortcuts.
	if cur == S4 && intents.ConfirmYes {
		return S5
	}
	if cur == S6 && intents.Resonance {
		return S7
	}
	if cur == S7 && intents.Hesitation {
		return S10
	}

	// Rule 9: linear advancement when the exit predicate holds.
	if hasSubstantiveAnswer(userText) {
		if next, ok := linearNext[cur]; ok {
			return next
		}
	}

	return cur
}

// ApplyRouting updates c in place: increments counters as needed,
// records the previous presentation state for objection handling, and
// performs the transition. Returns the resulting state.
func ApplyRouting(c *ConversationState, intents Intents, userText string) SalesState {
	c.RecordIntents(intents)

	if (c.State == S6 || c.State == S7) && intents.Guarded {
		c.PreviousPresentationState = c.State
		c.ObjectionCount++
	}

	// Route reads TechIssueCount before it is bumped for this occurrence,
	// so the 3rd occurrence (count already 2) is the one that exits; the
	// 1st and 2nd occurrences stay and only then increment the counter.
	next := Route(c, intents, userText)
	if intents.TechIssue && next == c.State && c.TechIssueCount < 2 {
		c.TechIssueCount++
	}

	c.transitionTo(next)
	return c.State
}
