package service

import (
	"coachlink/fitness-platform/internal/domain"
	"coachlink/fitness-platform/internal/repository"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type associationFixture struct {
	store    *memStore
	svc      AssociationService
	notifier *recordingNotifier
}

func newAssociationFixture() *associationFixture {
	store := newMemStore()
	notifier := &recordingNotifier{}
	svc := NewAssociationService(&memUserRepo{s: store}, &memRequestRepo{s: store}, store, notifier)
	return &associationFixture{store: store, svc: svc, notifier: notifier}
}

func (f *associationFixture) submit(t *testing.T, clientID, trainerID primitive.ObjectID) *domain.AssociationRequest {
	t.Helper()
	req, err := f.svc.Submit(context.Background(), clientID, trainerID, "please coach me")
	require.NoError(t, err)
	require.NotNil(t, req)
	return req
}

func TestSubmitRejectsEmptyReason(t *testing.T) {
	f := newAssociationFixture()
	trainer := f.store.seedTrainer(5)
	client := f.store.seedClient()

	_, err := f.svc.Submit(context.Background(), client.ID, trainer.ID, "   ")
	assert.ErrorIs(t, err, ErrEmptyReason)
}

func TestSubmitRejectsUnvalidatedTrainer(t *testing.T) {
	f := newAssociationFixture()
	trainer := f.store.seedUser(domain.User{
		Username: "newbie", Email: "newbie@trainers.test",
		Role: domain.RoleTrainer, IsValidated: false, MaxClients: 5,
	})
	client := f.store.seedClient()

	_, err := f.svc.Submit(context.Background(), client.ID, trainer.ID, "coach me")
	assert.ErrorIs(t, err, ErrTrainerNotFound)
}

func TestSubmitAllowsOnePendingPerClient(t *testing.T) {
	f := newAssociationFixture()
	trainerA := f.store.seedTrainer(5)
	trainerB := f.store.seedTrainer(5)
	client := f.store.seedClient()

	f.submit(t, client.ID, trainerA.ID)

	_, err := f.svc.Submit(context.Background(), client.ID, trainerB.ID, "changed my mind")
	assert.ErrorIs(t, err, ErrPendingRequestExists)
}

func TestSubmitSnapshotsCurrentTrainer(t *testing.T) {
	f := newAssociationFixture()
	trainerA := f.store.seedTrainer(5)
	trainerB := f.store.seedTrainer(5)
	client := f.store.seedManagedClient(trainerA.ID)

	req := f.submit(t, client.ID, trainerB.ID)

	require.NotNil(t, req.CurrentTrainerID)
	assert.Equal(t, trainerA.ID, *req.CurrentTrainerID)
	assert.True(t, req.IsChange())
}

func TestApproveLinksClientAndTrainer(t *testing.T) {
	f := newAssociationFixture()
	trainer := f.store.seedTrainer(5)
	client := f.store.seedClient()
	req := f.submit(t, client.ID, trainer.ID)

	resolved, err := f.svc.Resolve(context.Background(), req.ID, trainer.ID, domain.RoleTrainer, true)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestApproved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)
	require.NotNil(t, resolved.ResolvedBy)
	assert.Equal(t, trainer.ID, *resolved.ResolvedBy)

	gotClient := f.store.getUser(client.ID)
	require.NotNil(t, gotClient.TrainerID)
	assert.Equal(t, trainer.ID, *gotClient.TrainerID)

	gotTrainer := f.store.getUser(trainer.ID)
	assert.Contains(t, gotTrainer.ClientIDs, client.ID)

	assert.NotEmpty(t, f.notifier.eventsFor(client.ID))
	assert.NotEmpty(t, f.notifier.eventsFor(trainer.ID))
}

func TestRejectLeavesDirectoryUntouched(t *testing.T) {
	f := newAssociationFixture()
	trainer := f.store.seedTrainer(5)
	client := f.store.seedClient()
	req := f.submit(t, client.ID, trainer.ID)

	resolved, err := f.svc.Resolve(context.Background(), req.ID, trainer.ID, domain.RoleTrainer, false)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestRejected, resolved.Status)

	gotClient := f.store.getUser(client.ID)
	assert.Nil(t, gotClient.TrainerID)
	gotTrainer := f.store.getUser(trainer.ID)
	assert.Empty(t, gotTrainer.ClientIDs)
}

func TestResolveIsIdempotentSafe(t *testing.T) {
	f := newAssociationFixture()
	trainer := f.store.seedTrainer(5)
	client := f.store.seedClient()
	req := f.submit(t, client.ID, trainer.ID)

	_, err := f.svc.Resolve(context.Background(), req.ID, trainer.ID, domain.RoleTrainer, true)
	require.NoError(t, err)

	// A retried resolution must not mutate anything again.
	_, err = f.svc.Resolve(context.Background(), req.ID, trainer.ID, domain.RoleTrainer, false)
	assert.ErrorIs(t, err, ErrRequestNotPending)

	assert.Equal(t, domain.RequestApproved, f.store.getRequest(req.ID).Status)
	gotTrainer := f.store.getUser(trainer.ID)
	assert.Len(t, gotTrainer.ClientIDs, 1)
}

func TestApproveBlockedAtCapacity(t *testing.T) {
	f := newAssociationFixture()
	trainer := f.store.seedTrainer(1)
	f.store.seedManagedClient(trainer.ID) // fills the only slot
	client := f.store.seedClient()
	req := f.submit(t, client.ID, trainer.ID)

	_, err := f.svc.Resolve(context.Background(), req.ID, trainer.ID, domain.RoleTrainer, true)
	assert.ErrorIs(t, err, ErrTrainerCapacityFull)

	// The transaction rolled back: request still pending, directory untouched.
	assert.Equal(t, domain.RequestPending, f.store.getRequest(req.ID).Status)
	gotClient := f.store.getUser(client.ID)
	assert.Nil(t, gotClient.TrainerID)
}

func TestResolveAuthorization(t *testing.T) {
	ctx := context.Background()

	t.Run("only the target trainer resolves a new request", func(t *testing.T) {
		f := newAssociationFixture()
		trainer := f.store.seedTrainer(5)
		other := f.store.seedTrainer(5)
		client := f.store.seedClient()
		req := f.submit(t, client.ID, trainer.ID)

		_, err := f.svc.Resolve(ctx, req.ID, other.ID, domain.RoleTrainer, true)
		assert.ErrorIs(t, err, ErrResolutionForbidden)
	})

	t.Run("change requests are admin-only", func(t *testing.T) {
		f := newAssociationFixture()
		trainerA := f.store.seedTrainer(5)
		trainerB := f.store.seedTrainer(5)
		client := f.store.seedManagedClient(trainerA.ID)
		req := f.submit(t, client.ID, trainerB.ID)

		// Even the target trainer may not arbitrate a switch.
		_, err := f.svc.Resolve(ctx, req.ID, trainerB.ID, domain.RoleTrainer, true)
		assert.ErrorIs(t, err, ErrResolutionForbidden)
	})

	t.Run("admin approval moves the client between rosters", func(t *testing.T) {
		f := newAssociationFixture()
		admin := f.store.seedUser(domain.User{Username: "root", Email: "root@admin.test", Role: domain.RoleAdmin, IsValidated: true})
		trainerA := f.store.seedTrainer(5)
		trainerB := f.store.seedTrainer(5)
		client := f.store.seedManagedClient(trainerA.ID)
		req := f.submit(t, client.ID, trainerB.ID)

		_, err := f.svc.Resolve(ctx, req.ID, admin.ID, domain.RoleAdmin, true)
		require.NoError(t, err)

		gotClient := f.store.getUser(client.ID)
		require.NotNil(t, gotClient.TrainerID)
		assert.Equal(t, trainerB.ID, *gotClient.TrainerID)
		assert.NotContains(t, f.store.getUser(trainerA.ID).ClientIDs, client.ID)
		assert.Contains(t, f.store.getUser(trainerB.ID).ClientIDs, client.ID)
	})
}

func TestConcurrentResolutionsOfSameRequest(t *testing.T) {
	f := newAssociationFixture()
	trainer := f.store.seedTrainer(5)
	client := f.store.seedClient()
	req := f.submit(t, client.ID, trainer.ID)

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Resolve(context.Background(), req.ID, trainer.ID, domain.RoleTrainer, true)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, ErrRequestNotPending)
		}
	}
	assert.Equal(t, 1, winners, "exactly one resolution must commit")

	gotTrainer := f.store.getUser(trainer.ID)
	assert.Len(t, gotTrainer.ClientIDs, 1, "client must appear on the roster exactly once")
}

func TestConcurrentApprovalsForLastSlot(t *testing.T) {
	f := newAssociationFixture()
	trainer := f.store.seedTrainer(1)
	clientA := f.store.seedClient()
	clientB := f.store.seedClient()
	reqA := f.submit(t, clientA.ID, trainer.ID)
	reqB := f.submit(t, clientB.ID, trainer.ID)

	var wg sync.WaitGroup
	var errA, errB error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errA = f.svc.Resolve(context.Background(), reqA.ID, trainer.ID, domain.RoleTrainer, true)
	}()
	go func() {
		defer wg.Done()
		_, errB = f.svc.Resolve(context.Background(), reqB.ID, trainer.ID, domain.RoleTrainer, true)
	}()
	wg.Wait()

	if errA == nil {
		assert.ErrorIs(t, errB, ErrTrainerCapacityFull)
		assert.Equal(t, domain.RequestPending, f.store.getRequest(reqB.ID).Status)
	} else {
		require.NoError(t, errB)
		assert.ErrorIs(t, errA, ErrTrainerCapacityFull)
		assert.Equal(t, domain.RequestPending, f.store.getRequest(reqA.ID).Status)
	}

	gotTrainer := f.store.getUser(trainer.ID)
	assert.Len(t, gotTrainer.ClientIDs, 1, "only one approval may land on the last slot")
}

func TestUnlinkClient(t *testing.T) {
	ctx := context.Background()

	t.Run("owning trainer unlinks", func(t *testing.T) {
		f := newAssociationFixture()
		trainer := f.store.seedTrainer(5)
		client := f.store.seedManagedClient(trainer.ID)

		err := f.svc.UnlinkClient(ctx, client.ID, trainer.ID, domain.RoleTrainer)
		require.NoError(t, err)

		assert.Nil(t, f.store.getUser(client.ID).TrainerID)
		assert.Empty(t, f.store.getUser(trainer.ID).ClientIDs)
		assert.NotEmpty(t, f.notifier.eventsFor(client.ID))
	})

	t.Run("foreign trainer is refused", func(t *testing.T) {
		f := newAssociationFixture()
		trainer := f.store.seedTrainer(5)
		other := f.store.seedTrainer(5)
		client := f.store.seedManagedClient(trainer.ID)

		err := f.svc.UnlinkClient(ctx, client.ID, other.ID, domain.RoleTrainer)
		assert.ErrorIs(t, err, ErrUnlinkForbidden)
		assert.NotNil(t, f.store.getUser(client.ID).TrainerID)
	})

	t.Run("no active association", func(t *testing.T) {
		f := newAssociationFixture()
		trainer := f.store.seedTrainer(5)
		client := f.store.seedClient()

		err := f.svc.UnlinkClient(ctx, client.ID, trainer.ID, domain.RoleTrainer)
		assert.ErrorIs(t, err, ErrNoActiveAssociation)
	})
}

func TestLedgerListings(t *testing.T) {
	f := newAssociationFixture()
	ctx := context.Background()
	trainer := f.store.seedTrainer(5)
	trainerB := f.store.seedTrainer(5)
	clientA := f.store.seedClient()
	clientB := f.store.seedManagedClient(trainerB.ID)

	reqA := f.submit(t, clientA.ID, trainer.ID)
	reqB := f.submit(t, clientB.ID, trainer.ID) // change request

	queue, err := f.svc.ListPendingForTrainer(ctx, trainer.ID)
	require.NoError(t, err)
	assert.Len(t, queue, 2)

	changes, err := f.svc.ListPendingChanges(ctx)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, reqB.ID, changes[0].ID)

	mine, err := f.svc.ListMine(ctx, clientA.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, reqA.ID, mine[0].ID)

	// Resolve one and check the history filter.
	_, err = f.svc.Resolve(ctx, reqA.ID, trainer.ID, domain.RoleTrainer, false)
	require.NoError(t, err)

	history, err := f.svc.ListHistory(ctx, repository.ResolvedRequestFilter{Status: domain.RequestRejected})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, reqA.ID, history[0].ID)
}
