package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fieldops/kobo-dolibarr-bridge/internal/domain"
	"github.com/fieldops/kobo-dolibarr-bridge/internal/events"
)

type fakeDirectory struct {
	thirdparties []domain.RemoteThirdparty
	users        []domain.RemoteUser
	searchErr    error
}

func (f *fakeDirectory) SearchThirdpartyByCode(ctx context.Context, code string) (*domain.RemoteThirdparty, error) {
	return nil, f.searchErr
}

func (f *fakeDirectory) ListThirdparties(ctx context.Context, page, limit int) ([]domain.RemoteThirdparty, error) {
	if page > 0 {
		return nil, nil
	}
	return f.thirdparties, nil
}

func (f *fakeDirectory) SearchUserByLogin(ctx context.Context, login string) (*domain.RemoteUser, error) {
	return nil, f.searchErr
}

func (f *fakeDirectory) ListUsers(ctx context.Context, page, limit int) ([]domain.RemoteUser, error) {
	if page > 0 {
		return nil, nil
	}
	return f.users, nil
}

type fakeAgenda struct {
	created *domain.AgendaEvent
	err     error
}

func (f *fakeAgenda) CreateEvent(ctx context.Context, event domain.AgendaEvent) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.created = &event
	return "555", nil
}

type fakeReverser struct {
	address string
	err     error
	called  bool
}

func (f *fakeReverser) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	f.called = true
	return f.address, f.err
}

func newVisitService(directory *fakeDirectory, agenda *fakeAgenda, reverser *fakeReverser) *VisitService {
	return NewVisitService(runConfig(), VisitDependencies{
		DirectoryClient: directory,
		AgendaClient:    agenda,
		Geocoder:        reverser,
		Dispatcher:      events.NewInMemoryDispatcher(),
		Logger:          zap.NewNop(),
	})
}

func TestCreateVisitHappyPath(t *testing.T) {
	directory := &fakeDirectory{
		thirdparties: []domain.RemoteThirdparty{{ID: "9", Name: "ACME", ClientCode: "c-77"}},
		users:        []domain.RemoteUser{{ID: "3", Login: "JDoe"}},
	}
	agenda := &fakeAgenda{}
	svc := newVisitService(directory, agenda, &fakeReverser{})

	outcome, err := svc.CreateVisit(context.Background(), "run-1", domain.Submission{
		"thirdparty_ref":  "C-77",
		"asesor_login":    "jdoe",
		"ubicacion_texto": "5a Avenida, Zona 10",
	})
	require.NoError(t, err)

	assert.Equal(t, "CREATED", outcome.Status)
	assert.Equal(t, "555", outcome.EventID)
	assert.Equal(t, "9", outcome.ThirdpartyID)
	assert.Equal(t, "ACME", outcome.ThirdpartyName)
	assert.Equal(t, "3", outcome.UserID)

	require.NotNil(t, agenda.created)
	assert.Equal(t, "AC_RDV", agenda.created.TypeCode)
	assert.Equal(t, "Visita - C-77", agenda.created.Label)
	assert.Equal(t, "5a Avenida, Zona 10", agenda.created.Location)
	assert.Equal(t, agenda.created.Start, agenda.created.End)
}

func TestCreateVisitMissingFields(t *testing.T) {
	svc := newVisitService(&fakeDirectory{}, &fakeAgenda{}, &fakeReverser{})

	outcome, err := svc.CreateVisit(context.Background(), "run-1", domain.Submission{})
	require.NoError(t, err)
	assert.Equal(t, "NO_THIRDPARTY_REF", outcome.Status)

	outcome, err = svc.CreateVisit(context.Background(), "run-1", domain.Submission{"thirdparty_ref": "C-77"})
	require.NoError(t, err)
	assert.Equal(t, "NO_USER_LOGIN", outcome.Status)
}

func TestCreateVisitUnmatchedRecords(t *testing.T) {
	directory := &fakeDirectory{
		thirdparties: []domain.RemoteThirdparty{{ID: "9", ClientCode: "C-77"}},
	}
	svc := newVisitService(directory, &fakeAgenda{}, &fakeReverser{})

	outcome, err := svc.CreateVisit(context.Background(), "run-1", domain.Submission{
		"thirdparty_ref": "C-99",
		"asesor_login":   "jdoe",
	})
	require.NoError(t, err)
	assert.Equal(t, "THIRDPARTY_NOT_FOUND", outcome.Status)

	outcome, err = svc.CreateVisit(context.Background(), "run-1", domain.Submission{
		"thirdparty_ref": "C-77",
		"asesor_login":   "nobody",
	})
	require.NoError(t, err)
	assert.Equal(t, "USER_NOT_FOUND", outcome.Status)
}

func TestCreateVisitGeocodesWhenNoExplicitLocation(t *testing.T) {
	directory := &fakeDirectory{
		thirdparties: []domain.RemoteThirdparty{{ID: "9", ClientCode: "C-77"}},
		users:        []domain.RemoteUser{{ID: "3", Login: "jdoe"}},
	}
	agenda := &fakeAgenda{}
	reverser := &fakeReverser{address: "4a Avenida, Zona 10, Ciudad de Guatemala"}
	svc := newVisitService(directory, agenda, reverser)

	outcome, err := svc.CreateVisit(context.Background(), "run-1", domain.Submission{
		"thirdparty_ref": "C-77",
		"asesor_login":   "jdoe",
		"_geolocation":   []any{float64(14.6), float64(-90.5)},
	})
	require.NoError(t, err)

	assert.True(t, reverser.called)
	assert.Equal(t, "CREATED", outcome.Status)
	assert.Equal(t, "4a Avenida, Zona 10, Ciudad de Guatemala", outcome.Location)
}

func TestCreateVisitGeocodeFailureDegradesToEmptyLocation(t *testing.T) {
	directory := &fakeDirectory{
		thirdparties: []domain.RemoteThirdparty{{ID: "9", ClientCode: "C-77"}},
		users:        []domain.RemoteUser{{ID: "3", Login: "jdoe"}},
	}
	agenda := &fakeAgenda{}
	svc := newVisitService(directory, agenda, &fakeReverser{err: errors.New("provider down")})

	outcome, err := svc.CreateVisit(context.Background(), "run-1", domain.Submission{
		"thirdparty_ref": "C-77",
		"asesor_login":   "jdoe",
		"_geolocation":   []any{float64(14.6), float64(-90.5)},
	})
	require.NoError(t, err)
	assert.Equal(t, "CREATED", outcome.Status)
	assert.Empty(t, outcome.Location)
}

func TestCreateVisitTruncatesLocation(t *testing.T) {
	directory := &fakeDirectory{
		thirdparties: []domain.RemoteThirdparty{{ID: "9", ClientCode: "C-77"}},
		users:        []domain.RemoteUser{{ID: "3", Login: "jdoe"}},
	}
	agenda := &fakeAgenda{}
	svc := newVisitService(directory, agenda, &fakeReverser{})

	long := strings.Repeat("x", 200)
	outcome, err := svc.CreateVisit(context.Background(), "run-1", domain.Submission{
		"thirdparty_ref":  "C-77",
		"asesor_login":    "jdoe",
		"ubicacion_texto": long,
	})
	require.NoError(t, err)
	assert.Len(t, outcome.Location, 128)
}

func TestCreateVisitAgendaFailurePropagates(t *testing.T) {
	directory := &fakeDirectory{
		thirdparties: []domain.RemoteThirdparty{{ID: "9", ClientCode: "C-77"}},
		users:        []domain.RemoteUser{{ID: "3", Login: "jdoe"}},
	}
	svc := newVisitService(directory, &fakeAgenda{err: errors.New("agenda down")}, &fakeReverser{})

	_, err := svc.CreateVisit(context.Background(), "run-1", domain.Submission{
		"thirdparty_ref": "C-77",
		"asesor_login":   "jdoe",
	})
	assert.Error(t, err)
}
