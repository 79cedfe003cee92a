package registry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"google.golang.org/grpc/codes"

	"github.com/vortex-fintech/go-cadastro/cep"
	"github.com/vortex-fintech/go-cadastro/data/mirror"
	"github.com/vortex-fintech/go-cadastro/data/personstore"
	apperrors "github.com/vortex-fintech/go-cadastro/foundation/errors"
	"github.com/vortex-fintech/go-cadastro/foundation/retry"
	"github.com/vortex-fintech/go-cadastro/foundation/timeutil"
	"github.com/vortex-fintech/go-cadastro/messaging/notify"
	"github.com/vortex-fintech/go-cadastro/person"
	"github.com/vortex-fintech/go-cadastro/registry"
	"github.com/vortex-fintech/go-cadastro/registry/mocks"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,Mirror,Notifier,PostalLookup

var now = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store  *mocks.MockStore
	mirror *mocks.MockMirror
	notify *mocks.MockNotifier
	postal *mocks.MockPostalLookup
	reg    *prometheus.Registry
	svc    *registry.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		store:  mocks.NewMockStore(ctrl),
		mirror: mocks.NewMockMirror(ctrl),
		notify: mocks.NewMockNotifier(ctrl),
		postal: mocks.NewMockPostalLookup(ctrl),
		reg:    prometheus.NewRegistry(),
	}
	f.svc = registry.New(f.store, f.mirror, f.notify, f.postal,
		registry.WithClock(timeutil.NewFrozenClock(now)),
		registry.WithRetry(retry.Policy{Attempts: 2}),
		registry.WithMetrics(registry.NewMetrics(f.reg)),
	)
	return f
}

func maria() person.Person {
	return person.Person{
		Type:  person.Physical,
		Name:  "  Maria   Silva ",
		CPF:   "529.982.247-25",
		Phone: "(11) 98765-4321",
		Email: "Maria@Example.com",
		Addresses: []person.Address{
			{Street: "Rua A", ZipCode: "01310-100", State: "sp"},
		},
	}
}

func echoSave(_ context.Context, p person.Person) (person.Person, error) { return p, nil }

func TestSave_NewPersonSyncedAndAnnounced(t *testing.T) {
	f := newFixture(t)
	ctx := registry.WithDeviceToken(context.Background(), "tok-1")

	f.store.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(echoSave)
	f.mirror.EXPECT().SavePerson(gomock.Any(), gomock.Any(), "tok-1").Return(nil)
	f.mirror.EXPECT().
		RecordNotification(gomock.Any(), gomock.Any(), notify.Title, "A pessoa Maria Silva foi cadastrada com sucesso.").
		Return(mirror.Notification{}, nil)
	f.notify.EXPECT().PersonRegistered(gomock.Any(), gomock.Any()).Return(notify.PersonRegistered{}, nil)

	res, err := f.svc.Save(ctx, maria())
	require.NoError(t, err)
	assert.True(t, res.Synced)
	assert.Empty(t, res.Warning)

	p := res.Person
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, now, p.CreatedAt)
	assert.Equal(t, "Maria Silva", p.Name)
	assert.Equal(t, "52998224725", p.CPF)
	assert.Equal(t, "11987654321", p.Phone)
	assert.Equal(t, "maria@example.com", p.Email)
	require.Len(t, p.Addresses, 1)
	assert.Equal(t, "01310100", p.Addresses[0].ZipCode)
	assert.Equal(t, "SP", p.Addresses[0].State)
	assert.Equal(t, person.Residential, p.Addresses[0].Type)
	assert.Equal(t, 1.0, gathered(t, f.reg, "cadastro_persons_saved_total"))
}

func TestNewMetrics_SharesRegisteredCounters(t *testing.T) {
	f := newFixture(t)
	svc := registry.New(f.store, f.mirror, f.notify, f.postal,
		registry.WithClock(timeutil.NewFrozenClock(now)),
		registry.WithMetrics(registry.NewMetrics(f.reg)),
	)

	f.store.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(echoSave)
	f.mirror.EXPECT().SavePerson(gomock.Any(), gomock.Any(), "").Return(nil)
	f.mirror.EXPECT().RecordNotification(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(mirror.Notification{}, nil)
	f.notify.EXPECT().PersonRegistered(gomock.Any(), gomock.Any()).Return(notify.PersonRegistered{}, nil)

	_, err := svc.Save(context.Background(), maria())
	require.NoError(t, err)
	assert.Equal(t, 1.0, gathered(t, f.reg, "cadastro_persons_saved_total"))
}

func TestSave_ExistingKeepsIDAndCreatedAt(t *testing.T) {
	f := newFixture(t)
	created := now.Add(-48 * time.Hour)
	in := maria()
	in.ID = "p-1"
	in.CreatedAt = created

	f.store.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(echoSave)
	f.mirror.EXPECT().SavePerson(gomock.Any(), gomock.Any(), "").Return(nil)
	f.mirror.EXPECT().RecordNotification(gomock.Any(), "p-1", gomock.Any(), gomock.Any()).Return(mirror.Notification{}, nil)
	f.notify.EXPECT().PersonRegistered(gomock.Any(), gomock.Any()).Return(notify.PersonRegistered{}, nil)

	res, err := f.svc.Save(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "p-1", res.Person.ID)
	assert.Equal(t, created, res.Person.CreatedAt)
}

func TestSave_ValidationFailureStoresNothing(t *testing.T) {
	f := newFixture(t)
	in := maria()
	in.CPF = "111.111.111-11"

	_, err := f.svc.Save(context.Background(), in)
	require.Error(t, err)

	var ie apperrors.InvariantError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "cpf", ie.Field)
}

func TestSave_MirrorFailureReturnsWarning(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("redis down")

	f.store.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(echoSave)
	f.mirror.EXPECT().SavePerson(gomock.Any(), gomock.Any(), gomock.Any()).Return(boom).Times(2)

	res, err := f.svc.Save(context.Background(), maria())
	require.NoError(t, err)
	assert.False(t, res.Synced)
	assert.Equal(t, registry.SyncWarning+": redis down", res.Warning)
	assert.Equal(t, 1.0, gathered(t, f.reg, "cadastro_mirror_failures_total"))
	assert.NotEmpty(t, res.Person.ID)
}

func TestSave_StoreFailure(t *testing.T) {
	f := newFixture(t)
	f.store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(person.Person{}, errors.New("db down"))

	_, err := f.svc.Save(context.Background(), maria())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestSave_AnnounceFailuresAreIgnored(t *testing.T) {
	f := newFixture(t)
	f.store.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(echoSave)
	f.mirror.EXPECT().SavePerson(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.mirror.EXPECT().RecordNotification(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(mirror.Notification{}, errors.New("list full"))
	f.notify.EXPECT().PersonRegistered(gomock.Any(), gomock.Any()).
		Return(notify.PersonRegistered{}, errors.New("broker down"))

	res, err := f.svc.Save(context.Background(), maria())
	require.NoError(t, err)
	assert.True(t, res.Synced)
}

func TestGet_NotFound(t *testing.T) {
	f := newFixture(t)
	f.store.EXPECT().Get(gomock.Any(), "nope").Return(person.Person{}, personstore.ErrNotFound)

	_, err := f.svc.Get(context.Background(), "nope")
	resp := apperrors.ToErrorResponse(err)
	assert.Equal(t, codes.NotFound, resp.Code)
	assert.Equal(t, "nope", resp.Details["person_id"])
}

func TestSearch_BlankQueryLists(t *testing.T) {
	f := newFixture(t)
	all := []person.Person{{ID: "a"}, {ID: "b"}}
	f.store.EXPECT().List(gomock.Any()).Return(all, nil)

	got, err := f.svc.Search(context.Background(), "   ")
	require.NoError(t, err)
	assert.Equal(t, all, got)
}

func TestSearch_DelegatesQuery(t *testing.T) {
	f := newFixture(t)
	f.store.EXPECT().Search(gomock.Any(), "mar").Return([]person.Person{{ID: "a"}}, nil)

	got, err := f.svc.Search(context.Background(), "mar")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestDelete(t *testing.T) {
	t.Run("removes mirror copy", func(t *testing.T) {
		f := newFixture(t)
		f.store.EXPECT().Delete(gomock.Any(), "p-1").Return(nil)
		f.mirror.EXPECT().DeletePerson(gomock.Any(), "p-1").Return(nil)

		require.NoError(t, f.svc.Delete(context.Background(), "p-1"))
	})

	t.Run("mirror failure is not an error", func(t *testing.T) {
		f := newFixture(t)
		f.store.EXPECT().Delete(gomock.Any(), "p-1").Return(nil)
		f.mirror.EXPECT().DeletePerson(gomock.Any(), "p-1").Return(errors.New("down")).Times(2)

		require.NoError(t, f.svc.Delete(context.Background(), "p-1"))
	})

	t.Run("missing person", func(t *testing.T) {
		f := newFixture(t)
		f.store.EXPECT().Delete(gomock.Any(), "p-1").Return(personstore.ErrNotFound)

		err := f.svc.Delete(context.Background(), "p-1")
		assert.Equal(t, codes.NotFound, apperrors.ToErrorResponse(err).Code)
	})
}

func TestDeleteMany_DedupesAndFansOut(t *testing.T) {
	f := newFixture(t)
	f.store.EXPECT().DeleteMany(gomock.Any(), []string{"a", "b", "c"}).Return(2, nil)
	f.mirror.EXPECT().DeletePerson(gomock.Any(), "a").Return(nil)
	f.mirror.EXPECT().DeletePerson(gomock.Any(), "b").Return(nil)
	f.mirror.EXPECT().DeletePerson(gomock.Any(), "c").Return(nil)

	n, err := f.svc.DeleteMany(context.Background(), []string{"a", " b ", "a", "", "c"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestDeleteMany_EmptyIsNoop(t *testing.T) {
	f := newFixture(t)
	n, err := f.svc.DeleteMany(context.Background(), []string{" ", ""})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAddAddress(t *testing.T) {
	f := newFixture(t)
	stored := person.Person{ID: "p-1"}

	f.store.EXPECT().AddAddress(gomock.Any(), "p-1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, a person.Address) (person.Address, error) {
			assert.Equal(t, "01310100", a.ZipCode)
			assert.Equal(t, person.Residential, a.Type)
			a.ID = "addr-1"
			return a, nil
		})
	f.store.EXPECT().Get(gomock.Any(), "p-1").Return(stored, nil)
	f.mirror.EXPECT().ResyncPerson(gomock.Any(), stored).Return(nil)

	got, err := f.svc.AddAddress(context.Background(), "p-1", person.Address{ZipCode: "01310-100"})
	require.NoError(t, err)
	assert.Equal(t, "addr-1", got.ID)
}

func TestAddAddress_InvalidZip(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.AddAddress(context.Background(), "p-1", person.Address{ZipCode: "0131"})
	var ie apperrors.InvariantError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "zip_code", ie.Field)
}

func TestAddAddress_UnknownPerson(t *testing.T) {
	f := newFixture(t)
	f.store.EXPECT().AddAddress(gomock.Any(), "p-9", gomock.Any()).Return(person.Address{}, personstore.ErrNotFound)

	_, err := f.svc.AddAddress(context.Background(), "p-9", person.Address{})
	assert.Equal(t, codes.NotFound, apperrors.ToErrorResponse(err).Code)
}

func TestUpdateAndRemoveAddress(t *testing.T) {
	f := newFixture(t)
	stored := person.Person{ID: "p-1"}

	f.store.EXPECT().UpdateAddress(gomock.Any(), "p-1", gomock.Any()).Return(nil)
	f.store.EXPECT().RemoveAddress(gomock.Any(), "p-1", "addr-1").Return(nil)
	f.store.EXPECT().Get(gomock.Any(), "p-1").Return(stored, nil).Times(2)
	f.mirror.EXPECT().ResyncPerson(gomock.Any(), stored).Return(nil).Times(2)

	require.NoError(t, f.svc.UpdateAddress(context.Background(), "p-1", person.Address{ID: "addr-1", City: "São Paulo"}))
	require.NoError(t, f.svc.RemoveAddress(context.Background(), "p-1", "addr-1"))
}

func TestUpdateAddress_OtherDeviceKeepsCreator(t *testing.T) {
	f := newFixture(t)
	stored := person.Person{ID: "p-1"}
	ctx := registry.WithDeviceToken(context.Background(), "tok-2")

	f.store.EXPECT().UpdateAddress(gomock.Any(), "p-1", gomock.Any()).Return(nil)
	f.store.EXPECT().Get(gomock.Any(), "p-1").Return(stored, nil)
	f.mirror.EXPECT().ResyncPerson(gomock.Any(), stored).Return(nil)
	f.mirror.EXPECT().SavePerson(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	require.NoError(t, f.svc.UpdateAddress(ctx, "p-1", person.Address{ID: "addr-1", City: "Campinas"}))
}

func TestRemoveAddress_Missing(t *testing.T) {
	f := newFixture(t)
	f.store.EXPECT().RemoveAddress(gomock.Any(), "p-1", "addr-9").Return(personstore.ErrNotFound)

	err := f.svc.RemoveAddress(context.Background(), "p-1", "addr-9")
	resp := apperrors.ToErrorResponse(err)
	assert.Equal(t, codes.NotFound, resp.Code)
	assert.Equal(t, "addr-9", resp.Details["address_id"])
}

func TestSaveToken(t *testing.T) {
	f := newFixture(t)
	f.mirror.EXPECT().SaveToken(gomock.Any(), "tok", "android").Return(nil)
	require.NoError(t, f.svc.SaveToken(context.Background(), "tok", "android"))

	err := f.svc.SaveToken(context.Background(), " ", "android")
	assert.True(t, apperrors.IsInvariant(err))
}

func TestLookupCEP(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   codes.Code
		reason string
	}{
		{name: "invalid", err: cep.ErrInvalidCEP, code: codes.InvalidArgument, reason: "invalid_cep"},
		{name: "not found", err: cep.ErrNotFound, code: codes.NotFound},
		{name: "upstream", err: errors.New("timeout"), code: codes.Unavailable, reason: "upstream_unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.postal.EXPECT().Lookup(gomock.Any(), "01310100").Return(cep.Result{}, tt.err)

			_, err := f.svc.LookupCEP(context.Background(), "01310100")
			resp := apperrors.ToErrorResponse(err)
			assert.Equal(t, tt.code, resp.Code)
			if tt.reason != "" {
				assert.Equal(t, tt.reason, string(resp.Reason))
			}
		})
	}

	t.Run("found", func(t *testing.T) {
		f := newFixture(t)
		want := cep.Result{CEP: "01310-100", City: "São Paulo", State: "SP"}
		f.postal.EXPECT().Lookup(gomock.Any(), "01310100").Return(want, nil)

		got, err := f.svc.LookupCEP(context.Background(), "01310100")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
}

func TestDeviceToken_Roundtrip(t *testing.T) {
	assert.Empty(t, registry.DeviceToken(context.Background()))
	ctx := registry.WithDeviceToken(context.Background(), "abc")
	assert.Equal(t, "abc", registry.DeviceToken(ctx))
}

func gathered(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("%s not gathered", name)
	return 0
}
