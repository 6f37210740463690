package coordinator

import (
	"errors"
	"sync"
	"testing"
)

func TestIssueAndAcceptCreatesOneSession(t *testing.T) {
	f := newFixture(t)
	f.lobbyPlayer("conn-a", "alice")
	f.lobbyPlayer("conn-b", "bob")

	ch, err := f.c.IssueChallenge("conn-a", "bob", true)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if f.status("alice") != StatusChallenging || f.status("bob") != StatusChallenged {
		t.Fatalf("unexpected statuses %s/%s", f.status("alice"), f.status("bob"))
	}
	if got := f.n.of("conn-b", PushChallenge); len(got) != 1 || got[0].(ChallengeInfo).ChallengeID != ch.ChallengeID {
		t.Fatalf("expected challenge push to bob, got %+v", got)
	}
	snap, _ := f.c.ListLobby("conn-b")
	if snap.IncomingChallenge == nil || snap.IncomingChallenge.ChallengerID != "alice" {
		t.Fatalf("expected incoming challenge in bob's snapshot")
	}

	res, err := f.c.AcceptChallenge("conn-b", ch.ChallengeID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if res.Role != RoleGuest || res.Opponent.PlayerID != "alice" || !res.HintsEnabled {
		t.Fatalf("unexpected accept result %+v", res)
	}
	accepted := f.n.of("conn-a", PushChallengeAccepted)
	if len(accepted) != 1 {
		t.Fatalf("expected one acceptance push, got %d", len(accepted))
	}
	hostView := accepted[0].(AcceptResult)
	if hostView.Role != RoleHost || hostView.SessionID != res.SessionID {
		t.Fatalf("unexpected host view %+v", hostView)
	}
	if f.status("alice") != StatusInGame || f.status("bob") != StatusInGame {
		t.Fatalf("expected both in game")
	}
	if sessions := f.c.Sessions(); len(sessions) != 1 || sessions[0].Turn != RoleHost {
		t.Fatalf("expected one session with host to move, got %+v", sessions)
	}

	if _, err := f.c.AcceptChallenge("conn-b", ch.ChallengeID); !errors.Is(err, ErrUnknownChallenge) {
		t.Fatalf("expected second accept to fail with unknown_challenge, got %v", err)
	}
}

func TestIssueChallengeValidation(t *testing.T) {
	f := newFixture(t)
	f.lobbyPlayer("conn-a", "alice")
	f.register("conn-b", "bob", Identity{})

	if _, err := f.c.IssueChallenge("conn-a", "nobody", false); !errors.Is(err, ErrPlayerNotFound) {
		t.Fatalf("expected player_not_found, got %v", err)
	}
	if _, err := f.c.IssueChallenge("conn-a", "alice", false); !errors.Is(err, ErrTargetUnavailable) {
		t.Fatalf("expected self challenge to fail, got %v", err)
	}
	if _, err := f.c.IssueChallenge("conn-a", "bob", false); !errors.Is(err, ErrTargetUnavailable) {
		t.Fatalf("expected target outside lobby to fail, got %v", err)
	}
	if _, err := f.c.IssueChallenge("conn-b", "alice", false); !errors.Is(err, ErrNotInLobby) {
		t.Fatalf("expected not_in_lobby for challenger outside lobby, got %v", err)
	}
	if f.status("alice") != StatusAvailable {
		t.Fatalf("failed issue must not change state, got %s", f.status("alice"))
	}
}

func TestBusyTargetCannotBeChallengedTwice(t *testing.T) {
	f := newFixture(t)
	f.lobbyPlayer("conn-a", "alice")
	f.lobbyPlayer("conn-b", "bob")
	f.lobbyPlayer("conn-c", "carol")
	if _, err := f.c.IssueChallenge("conn-a", "bob", false); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := f.c.IssueChallenge("conn-c", "bob", false); !errors.Is(err, ErrTargetUnavailable) {
		t.Fatalf("expected target_unavailable, got %v", err)
	}
}

func TestDeclineAndCancel(t *testing.T) {
	f := newFixture(t)
	f.lobbyPlayer("conn-a", "alice")
	f.lobbyPlayer("conn-b", "bob")

	ch, _ := f.c.IssueChallenge("conn-a", "bob", false)
	if _, err := f.c.DeclineChallenge("conn-b", "missing"); !errors.Is(err, ErrUnknownChallenge) {
		t.Fatalf("expected unknown_challenge, got %v", err)
	}
	reason, err := f.c.DeclineChallenge("conn-b", ch.ChallengeID)
	if err != nil || reason != ReasonDeclined {
		t.Fatalf("decline: %q %v", reason, err)
	}
	if got := f.n.of("conn-a", PushChallengeDeclined); len(got) != 1 {
		t.Fatalf("expected decline push to challenger, got %d", len(got))
	}
	if f.status("alice") != StatusAvailable || f.status("bob") != StatusAvailable {
		t.Fatalf("expected both available after decline")
	}

	ch, _ = f.c.IssueChallenge("conn-a", "bob", false)
	reason, err = f.c.DeclineChallenge("conn-a", ch.ChallengeID)
	if err != nil || reason != ReasonCancelled {
		t.Fatalf("cancel: %q %v", reason, err)
	}
	if got := f.n.of("conn-b", PushChallengeCancelled); len(got) != 1 {
		t.Fatalf("expected cancel push to target, got %d", len(got))
	}
	if _, err := f.c.AcceptChallenge("conn-b", ch.ChallengeID); !errors.Is(err, ErrUnknownChallenge) {
		t.Fatalf("expected accept after cancel to fail, got %v", err)
	}
}

func TestThirdPartyCannotTouchChallenge(t *testing.T) {
	f := newFixture(t)
	f.lobbyPlayer("conn-a", "alice")
	f.lobbyPlayer("conn-b", "bob")
	f.lobbyPlayer("conn-c", "carol")
	ch, _ := f.c.IssueChallenge("conn-a", "bob", false)
	if _, err := f.c.AcceptChallenge("conn-c", ch.ChallengeID); !errors.Is(err, ErrNotYours) {
		t.Fatalf("expected not_yours on accept, got %v", err)
	}
	if _, err := f.c.DeclineChallenge("conn-c", ch.ChallengeID); !errors.Is(err, ErrNotYours) {
		t.Fatalf("expected not_yours on decline, got %v", err)
	}
}

func TestAcceptRacingDeclineHasOneWinner(t *testing.T) {
	for i := 0; i < 50; i++ {
		f := newFixture(t)
		f.lobbyPlayer("conn-a", "alice")
		f.lobbyPlayer("conn-b", "bob")
		ch, _ := f.c.IssueChallenge("conn-a", "bob", false)

		var wg sync.WaitGroup
		var acceptErr, cancelErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, acceptErr = f.c.AcceptChallenge("conn-b", ch.ChallengeID)
		}()
		go func() {
			defer wg.Done()
			_, cancelErr = f.c.DeclineChallenge("conn-a", ch.ChallengeID)
		}()
		wg.Wait()

		if (acceptErr == nil) == (cancelErr == nil) {
			t.Fatalf("expected exactly one winner, accept=%v cancel=%v", acceptErr, cancelErr)
		}
		loser := acceptErr
		if loser == nil {
			loser = cancelErr
		}
		if !errors.Is(loser, ErrUnknownChallenge) {
			t.Fatalf("expected loser to see unknown_challenge, got %v", loser)
		}
	}
}

func TestChallengerDisconnectCancelsChallenge(t *testing.T) {
	f := newFixture(t)
	f.lobbyPlayer("conn-a", "alice")
	f.lobbyPlayer("conn-b", "bob")
	f.c.IssueChallenge("conn-a", "bob", false)

	f.c.Disconnect("conn-a")
	if f.status("alice") != "" {
		t.Fatalf("expected alice removed")
	}
	if f.status("bob") != StatusAvailable {
		t.Fatalf("expected bob available, got %s", f.status("bob"))
	}
	got := f.n.of("conn-b", PushChallengeCancelled)
	if len(got) != 1 || reasonOf(got[0]) != ReasonPlayerLeft {
		t.Fatalf("expected player_left cancellation, got %+v", got)
	}
	if st := f.c.Stats(); st.Challenges != 0 {
		t.Fatalf("expected no pending challenges, got %d", st.Challenges)
	}
}

func TestCancelChallengeIsChallengerOnly(t *testing.T) {
	f := newFixture(t)
	f.lobbyPlayer("conn-a", "alice")
	f.lobbyPlayer("conn-b", "bob")
	ch, _ := f.c.IssueChallenge("conn-a", "bob", false)
	if err := f.c.CancelChallenge("conn-b", ch.ChallengeID); !errors.Is(err, ErrNotYours) {
		t.Fatalf("expected target cancel to fail with not_yours, got %v", err)
	}
	if err := f.c.CancelChallenge("conn-a", ch.ChallengeID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := f.c.DeclineChallenge("conn-b", ch.ChallengeID); !errors.Is(err, ErrUnknownChallenge) {
		t.Fatalf("expected decline after cancel to fail, got %v", err)
	}
}
