package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jmerrifield20/SkillSwap/internal/ledger"
	"github.com/jmerrifield20/SkillSwap/internal/marketplace/model"
	"github.com/jmerrifield20/SkillSwap/internal/marketplace/service"
	"go.uber.org/zap"
)

const (
	alice int64 = 1
	bob   int64 = 2
	carol int64 = 3

	skillGo     int64 = 10
	skillGuitar int64 = 20
)

func newSwapService(t *testing.T) (*service.SwapService, *stubSwapRepo) {
	t.Helper()
	repo := newStubSwapRepo()
	offers := stubOffers{{alice, skillGo}: true, {bob, skillGuitar}: true}
	return service.NewSwapService(repo, offers, zap.NewNop()), repo
}

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }

func trackPtr(t model.TrackingStatus) *model.TrackingStatus { return &t }

func createSwap(t *testing.T, svc *service.SwapService) *model.Swap {
	t.Helper()
	sw, err := svc.Create(context.Background(), alice, &model.CreateSwapRequest{
		RecipientID:      bob,
		RequesterSkillID: skillGo,
		RecipientSkillID: skillGuitar,
		Message:          "teach me guitar?",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return sw
}

func acceptSwap(t *testing.T, svc *service.SwapService, id int64) {
	t.Helper()
	n, err := svc.TransitionStatus(context.Background(), id, bob, model.SwapStatusAccepted)
	if err != nil || n != 1 {
		t.Fatalf("accept: changes=%d err=%v", n, err)
	}
}

func TestCreate_startsPending(t *testing.T) {
	svc, _ := newSwapService(t)
	sw := createSwap(t, svc)

	if sw.Status != model.SwapStatusPending || sw.TrackingStatus != model.TrackingPending {
		t.Errorf("got status=%q tracking=%q", sw.Status, sw.TrackingStatus)
	}
	if sw.ID == 0 {
		t.Error("id not assigned")
	}
}

func TestCreate_requesterMustOfferSkill(t *testing.T) {
	svc, _ := newSwapService(t)
	_, err := svc.Create(context.Background(), alice, &model.CreateSwapRequest{
		RecipientID:      bob,
		RequesterSkillID: skillGuitar,
		RecipientSkillID: skillGo,
	})
	var valErr *model.ErrValidation
	if !errors.As(err, &valErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreate_rejectsSelfSwap(t *testing.T) {
	svc, _ := newSwapService(t)
	_, err := svc.Create(context.Background(), alice, &model.CreateSwapRequest{
		RecipientID:      alice,
		RequesterSkillID: skillGo,
		RecipientSkillID: skillGo,
	})
	var valErr *model.ErrValidation
	if !errors.As(err, &valErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTransitionStatus_acceptSetsInProgress(t *testing.T) {
	svc, repo := newSwapService(t)
	sw := createSwap(t, svc)
	acceptSwap(t, svc, sw.ID)

	got, _ := repo.GetByID(context.Background(), sw.ID)
	if got.Status != model.SwapStatusAccepted || got.TrackingStatus != model.TrackingInProgress {
		t.Errorf("got status=%q tracking=%q", got.Status, got.TrackingStatus)
	}
}

func TestTransitionStatus_roles(t *testing.T) {
	ctx := context.Background()
	svc, _ := newSwapService(t)
	sw := createSwap(t, svc)

	if _, err := svc.TransitionStatus(ctx, sw.ID, alice, model.SwapStatusAccepted); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("requester accepting own request: got %v, want ErrForbidden", err)
	}
	if _, err := svc.TransitionStatus(ctx, sw.ID, carol, model.SwapStatusCancelled); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("outsider cancelling: got %v, want ErrForbidden", err)
	}
	if _, err := svc.TransitionStatus(ctx, sw.ID, bob, model.SwapStatusPending); err == nil {
		t.Error("pending is not a valid target")
	}
	n, err := svc.TransitionStatus(ctx, sw.ID, alice, model.SwapStatusCancelled)
	if err != nil || n != 1 {
		t.Errorf("requester cancel: changes=%d err=%v", n, err)
	}
}

func TestTransitionStatus_staleSourceIsSoftFailure(t *testing.T) {
	ctx := context.Background()
	svc, _ := newSwapService(t)
	sw := createSwap(t, svc)

	if n, _ := svc.TransitionStatus(ctx, sw.ID, bob, model.SwapStatusRejected); n != 1 {
		t.Fatalf("reject: changes=%d", n)
	}
	n, err := svc.TransitionStatus(ctx, sw.ID, bob, model.SwapStatusAccepted)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Errorf("accepting a rejected swap changed %d rows", n)
	}
}

func TestDelete_onlyPendingAndOnlyRequester(t *testing.T) {
	ctx := context.Background()
	svc, _ := newSwapService(t)
	sw := createSwap(t, svc)

	if n, _ := svc.Delete(ctx, sw.ID, bob); n != 0 {
		t.Errorf("recipient deleted %d rows", n)
	}
	acceptSwap(t, svc, sw.ID)
	if n, _ := svc.Delete(ctx, sw.ID, alice); n != 0 {
		t.Errorf("accepted swap deleted (%d rows)", n)
	}

	sw2 := createSwap(t, svc)
	if n, err := svc.Delete(ctx, sw2.ID, alice); err != nil || n != 1 {
		t.Errorf("requester delete pending: changes=%d err=%v", n, err)
	}
}

func TestUpdateProgress_fullScenario(t *testing.T) {
	ctx := context.Background()
	svc, repo := newSwapService(t)
	l := ledger.NewMemory()
	events := &recordingDispatcher{}
	svc.SetLedger(l)
	svc.SetEventDispatcher(events)
	stamp := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return stamp })

	sw := createSwap(t, svc)
	acceptSwap(t, svc, sw.ID)

	if _, err := svc.UpdateProgress(ctx, sw.ID, alice, model.ProgressUpdate{Completed: boolPtr(true)}); err != nil {
		t.Fatalf("requester completed: %v", err)
	}
	mid, _ := repo.GetByID(ctx, sw.ID)
	if mid.TrackingStatus == model.TrackingCompleted || mid.CompletedAt != nil {
		t.Fatal("swap completed after only one party")
	}

	if _, err := svc.UpdateProgress(ctx, sw.ID, bob, model.ProgressUpdate{Completed: boolPtr(true)}); err != nil {
		t.Fatalf("recipient completed: %v", err)
	}
	done, _ := repo.GetByID(ctx, sw.ID)
	if done.TrackingStatus != model.TrackingCompleted {
		t.Errorf("tracking_status: got %q, want completed", done.TrackingStatus)
	}
	if done.CompletedAt == nil || !done.CompletedAt.Equal(stamp) {
		t.Errorf("completed_at: got %v, want %v", done.CompletedAt, stamp)
	}
	if events.count(service.EventSwapCompleted) != 1 {
		t.Errorf("swap.completed dispatched %d times", events.count(service.EventSwapCompleted))
	}
	if err := l.Verify(ctx); err != nil {
		t.Errorf("ledger: %v", err)
	}
	if n, _ := l.Len(ctx); n < 5 {
		t.Errorf("expected lifecycle entries in ledger, got %d", n)
	}
}

func TestUpdateProgress_requiresAcceptedSwap(t *testing.T) {
	svc, _ := newSwapService(t)
	sw := createSwap(t, svc)

	_, err := svc.UpdateProgress(context.Background(), sw.ID, alice, model.ProgressUpdate{Notes: strPtr("hi")})
	if !errors.Is(err, service.ErrConflict) {
		t.Errorf("got %v, want ErrConflict", err)
	}
}

func TestUpdateProgress_outsiderForbidden(t *testing.T) {
	svc, _ := newSwapService(t)
	sw := createSwap(t, svc)
	acceptSwap(t, svc, sw.ID)

	_, err := svc.UpdateProgress(context.Background(), sw.ID, carol, model.ProgressUpdate{Completed: boolPtr(true)})
	if !errors.Is(err, service.ErrForbidden) {
		t.Errorf("got %v, want ErrForbidden", err)
	}
}

func TestUpdateProgress_rejectsDirectCompleted(t *testing.T) {
	svc, _ := newSwapService(t)
	sw := createSwap(t, svc)
	acceptSwap(t, svc, sw.ID)

	_, err := svc.UpdateProgress(context.Background(), sw.ID, alice,
		model.ProgressUpdate{TrackingStatus: trackPtr(model.TrackingCompleted)})
	var valErr *model.ErrValidation
	if !errors.As(err, &valErr) {
		t.Errorf("got %v, want validation error", err)
	}
}

func TestUpdateProgress_completedSwapAcceptsNotesOnly(t *testing.T) {
	ctx := context.Background()
	svc, repo := newSwapService(t)
	sw := createSwap(t, svc)
	acceptSwap(t, svc, sw.ID)
	_, _ = svc.UpdateProgress(ctx, sw.ID, alice, model.ProgressUpdate{Completed: boolPtr(true)})
	_, _ = svc.UpdateProgress(ctx, sw.ID, bob, model.ProgressUpdate{Completed: boolPtr(true)})

	if _, err := svc.UpdateProgress(ctx, sw.ID, alice, model.ProgressUpdate{Completed: boolPtr(false)}); !errors.Is(err, service.ErrConflict) {
		t.Errorf("un-completing: got %v, want ErrConflict", err)
	}
	if _, err := svc.UpdateProgress(ctx, sw.ID, alice, model.ProgressUpdate{Notes: strPtr("great lessons")}); err != nil {
		t.Errorf("notes after completion: %v", err)
	}
	got, _ := repo.GetByID(ctx, sw.ID)
	if got.RequesterNotes != "great lessons" || got.TrackingStatus != model.TrackingCompleted {
		t.Errorf("got notes=%q tracking=%q", got.RequesterNotes, got.TrackingStatus)
	}
}

func TestUpdateProgress_concurrentCompletionFiresOnce(t *testing.T) {
	ctx := context.Background()
	svc, repo := newSwapService(t)
	events := &recordingDispatcher{}
	svc.SetEventDispatcher(events)
	sw := createSwap(t, svc)
	acceptSwap(t, svc, sw.ID)

	var wg sync.WaitGroup
	for _, actor := range []int64{alice, bob} {
		wg.Add(1)
		go func(actor int64) {
			defer wg.Done()
			if _, err := svc.UpdateProgress(ctx, sw.ID, actor, model.ProgressUpdate{Completed: boolPtr(true)}); err != nil {
				t.Errorf("actor %d: %v", actor, err)
			}
		}(actor)
	}
	wg.Wait()

	got, _ := repo.GetByID(ctx, sw.ID)
	if got.TrackingStatus != model.TrackingCompleted || got.CompletedAt == nil {
		t.Errorf("got tracking=%q completed_at=%v", got.TrackingStatus, got.CompletedAt)
	}
	if n := events.count(service.EventSwapCompleted); n != 1 {
		t.Errorf("completion fired %d times", n)
	}
}

func TestTransitionStatus_cannotCancelCompletedSwap(t *testing.T) {
	ctx := context.Background()
	svc, _ := newSwapService(t)
	sw := createSwap(t, svc)
	acceptSwap(t, svc, sw.ID)
	_, _ = svc.UpdateProgress(ctx, sw.ID, alice, model.ProgressUpdate{Completed: boolPtr(true)})
	_, _ = svc.UpdateProgress(ctx, sw.ID, bob, model.ProgressUpdate{Completed: boolPtr(true)})

	n, err := svc.TransitionStatus(ctx, sw.ID, alice, model.SwapStatusCancelled)
	if err != nil || n != 0 {
		t.Errorf("cancel completed swap: changes=%d err=%v", n, err)
	}
}

func TestList_newestFirst(t *testing.T) {
	svc, _ := newSwapService(t)
	first := createSwap(t, svc)
	second := createSwap(t, svc)

	got, err := svc.List(context.Background(), bob)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != second.ID || got[1].ID != first.ID {
		t.Errorf("unexpected order: %+v", got)
	}
}
