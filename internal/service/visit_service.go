package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fieldops/kobo-dolibarr-bridge/internal/client/dolibarr"
	"github.com/fieldops/kobo-dolibarr-bridge/internal/client/geocode"
	"github.com/fieldops/kobo-dolibarr-bridge/internal/config"
	"github.com/fieldops/kobo-dolibarr-bridge/internal/domain"
	"github.com/fieldops/kobo-dolibarr-bridge/internal/events"
	"github.com/fieldops/kobo-dolibarr-bridge/internal/reconcile"
)

// Visit event type code in the remote agenda.
const visitTypeCode = "AC_RDV"

// The remote location field is capped at 128 characters.
const locationMaxLen = 128

var (
	thirdpartyRefPaths = []string{
		"thirdparty_ref", "tercero_ref",
		"dolibarr/thirdparty_ref", "dolibarr/tercero_ref",
		"dolibarr.thirdparty_ref", "dolibarr.tercero_ref",
		"datos_visita/thirdparty_ref", "datos_visita/tercero_ref",
		"datos_visita.thirdparty_ref", "datos_visita.tercero_ref",
	}
	userLoginPaths = []string{
		"asesor_login", "login",
		"dolibarr/asesor_login", "dolibarr/login",
		"dolibarr.asesor_login", "dolibarr.login",
		"datos_visita/asesor_login", "datos_visita/login",
		"datos_visita.asesor_login", "datos_visita.login",
	}
	labelPaths = []string{
		"label", "titulo",
		"dolibarr/label", "dolibarr/titulo",
		"dolibarr.label", "dolibarr.titulo",
	}
	notePaths = []string{
		"note", "descripcion",
		"dolibarr/descripcion", "dolibarr.descripcion",
	}
	locationTextPaths = []string{"ubicacion_texto", "ubicacion_direccion", "direccion", "location_text"}
	geoPointPaths     = []string{"ubicacion_gps", "gps_inicio", "ubicacion", "_geolocation"}
)

// VisitService creates agenda events from field-visit submissions: it
// resolves the third party by customer code and the advisor by exact
// login, derives a location (explicit text first, reverse-geocoded GPS
// as fallback) and posts the event.
type VisitService struct {
	directory  dolibarr.DirectoryClient
	agenda     dolibarr.AgendaClient
	geocoder   geocode.Reverser
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.RunConfig
}

// VisitDependencies bundles collaborators for the visit service.
type VisitDependencies struct {
	DirectoryClient dolibarr.DirectoryClient
	AgendaClient    dolibarr.AgendaClient
	Geocoder        geocode.Reverser
	Dispatcher      events.Dispatcher
	Logger          *zap.Logger
}

// NewVisitService constructs the service.
func NewVisitService(cfg config.RunConfig, deps VisitDependencies) *VisitService {
	return &VisitService{
		directory:  deps.DirectoryClient,
		agenda:     deps.AgendaClient,
		geocoder:   deps.Geocoder,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		cfg:        cfg,
	}
}

// CreateVisit processes one visit submission. Missing fields and
// unmatched records are business outcomes returned with a nil error;
// only remote-call failures propagate as errors.
func (s *VisitService) CreateVisit(ctx context.Context, runID string, submission domain.Submission) (*domain.VisitOutcome, error) {
	thirdpartyRef, ok := submission.First(thirdpartyRefPaths...)
	if !ok {
		return &domain.VisitOutcome{Status: "NO_THIRDPARTY_REF"}, nil
	}
	login, ok := submission.First(userLoginPaths...)
	if !ok {
		return &domain.VisitOutcome{Status: "NO_USER_LOGIN", ThirdpartyRef: thirdpartyRef}, nil
	}

	thirdparty, err := s.locateThirdparty(ctx, runID, thirdpartyRef)
	if err != nil {
		return nil, err
	}
	if thirdparty == nil {
		return &domain.VisitOutcome{Status: "THIRDPARTY_NOT_FOUND", ThirdpartyRef: thirdpartyRef}, nil
	}

	user, err := s.locateUser(ctx, runID, login)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return &domain.VisitOutcome{Status: "USER_NOT_FOUND", ThirdpartyRef: thirdpartyRef, UserLogin: login}, nil
	}

	label, ok := submission.First(labelPaths...)
	if !ok {
		label = "Visita - " + thirdpartyRef
	}
	note, _ := submission.First(notePaths...)
	location := s.resolveLocation(ctx, runID, submission)

	now := time.Now().Unix()
	eventID, err := s.agenda.CreateEvent(ctx, domain.AgendaEvent{
		ThirdpartyID: thirdparty.ID,
		OwnerUserID:  user.ID,
		TypeCode:     visitTypeCode,
		Label:        label,
		Note:         note,
		Location:     truncate(location, locationMaxLen),
		Start:        now,
		End:          now,
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, runID, thirdpartyRef, events.VisitCreatedPayload{
		EventID:      eventID,
		ThirdpartyID: thirdparty.ID,
		UserID:       user.ID,
	})
	return &domain.VisitOutcome{
		Status:         "CREATED",
		EventID:        eventID,
		ThirdpartyRef:  thirdpartyRef,
		ThirdpartyID:   thirdparty.ID,
		ThirdpartyName: thirdparty.Name,
		UserLogin:      user.Login,
		UserID:         user.ID,
		Location:       truncate(location, locationMaxLen),
	}, nil
}

func (s *VisitService) locateThirdparty(ctx context.Context, runID, ref string) (*domain.RemoteThirdparty, error) {
	thirdparty, err := s.directory.SearchThirdpartyByCode(ctx, ref)
	if err != nil {
		s.logger.Warn("thirdparty search fast path failed, falling back to scan",
			zap.String("run_id", runID), zap.String("ref", ref), zap.Error(err))
	} else if thirdparty != nil {
		return thirdparty, nil
	}

	found, ok, err := reconcile.FindByRef(ctx, ref, s.directory.ListThirdparties,
		func(t domain.RemoteThirdparty) []string { return []string{t.ClientCode, t.Ref} },
		s.cfg.PageSize, s.cfg.DirectoryMaxPages)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &found, nil
}

func (s *VisitService) locateUser(ctx context.Context, runID, login string) (*domain.RemoteUser, error) {
	user, err := s.directory.SearchUserByLogin(ctx, login)
	if err != nil {
		s.logger.Warn("user search fast path failed, falling back to scan",
			zap.String("run_id", runID), zap.String("login", login), zap.Error(err))
	} else if user != nil {
		return user, nil
	}

	target := reconcile.NormalizeLogin(login)
	found, ok, err := reconcile.FindByRef(ctx, target, s.directory.ListUsers,
		func(u domain.RemoteUser) []string { return []string{reconcile.NormalizeLogin(u.Login)} },
		s.cfg.PageSize, s.cfg.DirectoryMaxPages)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &found, nil
}

// resolveLocation prefers an explicit address field; otherwise it
// parses the submission's geolocation and reverse-geocodes it. A
// geocoding failure degrades to an empty location, never a failed
// request.
func (s *VisitService) resolveLocation(ctx context.Context, runID string, submission domain.Submission) string {
	if text, ok := submission.First(locationTextPaths...); ok {
		return text
	}
	raw, ok := submission.FirstRaw(geoPointPaths...)
	if !ok {
		return ""
	}
	point := domain.ParseGeoPoint(raw)
	if point == nil {
		return ""
	}
	address, err := s.geocoder.Reverse(ctx, point.Lat, point.Lon)
	if err != nil {
		s.logger.Warn("reverse geocoding failed", zap.String("run_id", runID), zap.Error(err))
		return ""
	}
	return address
}

func (s *VisitService) emit(ctx context.Context, runID, ref string, payload events.VisitCreatedPayload) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventVisitCreated,
		RunID:     runID,
		Ref:       ref,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
