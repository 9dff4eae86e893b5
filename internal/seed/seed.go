// Package seed loads the static mission board data set.
package seed

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"missionboard/internal/domain"
)

//go:embed data/*.yaml
var dataFS embed.FS

const (
	MissionsFile = "missions.yaml"
	PaymentsFile = "payments.yaml"
	StatsFile    = "stats.yaml"
)

// Data is one complete snapshot: missions in file order, the payments that
// reference them, and precomputed stats.
type Data struct {
	Missions  []domain.Mission
	Payments  []domain.Payment
	Users     []domain.UserStats
	Dashboard domain.DashboardStats
}

type missionsFile struct {
	Missions []domain.Mission `yaml:"missions"`
}

type paymentsFile struct {
	Payments []domain.Payment `yaml:"payments"`
}

type statsFile struct {
	Dashboard domain.DashboardStats `yaml:"dashboard"`
	Users     []domain.UserStats    `yaml:"users"`
}

// Load reads the embedded data set.
func Load(logger *zap.Logger) (Data, error) {
	sub, err := fs.Sub(dataFS, "data")
	if err != nil {
		return Data{}, err
	}
	return LoadFS(sub, logger)
}

// LoadDir reads a data set from dir. Only missions.yaml is required.
func LoadDir(dir string, logger *zap.Logger) (Data, error) {
	if _, err := os.Stat(dir); err != nil {
		return Data{}, fmt.Errorf("seed dir: %w", err)
	}
	return LoadFS(os.DirFS(dir), logger)
}

// LoadFS reads a data set from fsys. Invalid entries are logged and
// skipped; a missing or unparseable missions file is an error.
func LoadFS(fsys fs.FS, logger *zap.Logger) (Data, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var data Data

	var mf missionsFile
	if err := decode(fsys, MissionsFile, &mf); err != nil {
		return Data{}, err
	}
	missionIDs := make(map[string]struct{}, len(mf.Missions))
	for i, m := range mf.Missions {
		if err := validateMission(m); err != nil {
			logger.Warn("skipping mission", zap.Int("index", i), zap.String("id", m.ID), zap.Error(err))
			continue
		}
		if _, dup := missionIDs[m.ID]; dup {
			logger.Warn("skipping duplicate mission", zap.String("id", m.ID))
			continue
		}
		missionIDs[m.ID] = struct{}{}
		data.Missions = append(data.Missions, m)
	}

	var pf paymentsFile
	if err := decodeOptional(fsys, PaymentsFile, &pf, logger); err != nil {
		return Data{}, err
	}
	paymentIDs := make(map[string]struct{}, len(pf.Payments))
	for i, p := range pf.Payments {
		if err := validatePayment(p, missionIDs); err != nil {
			logger.Warn("skipping payment", zap.Int("index", i), zap.String("id", p.ID), zap.Error(err))
			continue
		}
		if _, dup := paymentIDs[p.ID]; dup {
			logger.Warn("skipping duplicate payment", zap.String("id", p.ID))
			continue
		}
		paymentIDs[p.ID] = struct{}{}
		data.Payments = append(data.Payments, p)
	}

	var sf statsFile
	if err := decodeOptional(fsys, StatsFile, &sf, logger); err != nil {
		return Data{}, err
	}
	data.Dashboard = sf.Dashboard
	userIDs := make(map[string]struct{}, len(sf.Users))
	for i, u := range sf.Users {
		if strings.TrimSpace(u.UserID) == "" {
			logger.Warn("skipping user stats without user_id", zap.Int("index", i))
			continue
		}
		if _, dup := userIDs[u.UserID]; dup {
			logger.Warn("skipping duplicate user stats", zap.String("user_id", u.UserID))
			continue
		}
		userIDs[u.UserID] = struct{}{}
		data.Users = append(data.Users, u)
	}

	logger.Debug("seed loaded",
		zap.Int("missions", len(data.Missions)),
		zap.Int("payments", len(data.Payments)),
		zap.Int("users", len(data.Users)),
	)
	return data, nil
}

func decode(fsys fs.FS, name string, out any) error {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

func decodeOptional(fsys fs.FS, name string, out any, logger *zap.Logger) error {
	err := decode(fsys, name, out)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("seed file missing", zap.String("file", name))
		return nil
	}
	return err
}

func validateMission(m domain.Mission) error {
	switch {
	case strings.TrimSpace(m.ID) == "":
		return errors.New("id is required")
	case strings.TrimSpace(m.Title) == "":
		return errors.New("title is required")
	case m.Reward < 0:
		return fmt.Errorf("reward must not be negative: %v", m.Reward)
	case m.BonusPercentage < 0:
		return fmt.Errorf("bonus_percentage must not be negative: %v", m.BonusPercentage)
	case !m.Status.Valid():
		return fmt.Errorf("invalid status %q", m.Status)
	case !m.Type.Valid():
		return fmt.Errorf("invalid type %q", m.Type)
	case !m.Difficulty.Valid():
		return fmt.Errorf("invalid difficulty %q", m.Difficulty)
	case m.MaxCandidates < 1:
		return fmt.Errorf("max_candidates must be positive: %d", m.MaxCandidates)
	case m.CurrentCandidates < 0:
		return fmt.Errorf("current_candidates must not be negative: %d", m.CurrentCandidates)
	}
	for _, s := range m.Steps {
		if strings.TrimSpace(s.ID) == "" {
			return errors.New("step id is required")
		}
		if !s.Status.Valid() {
			return fmt.Errorf("step %s has invalid status %q", s.ID, s.Status)
		}
	}
	return nil
}

func validatePayment(p domain.Payment, missions map[string]struct{}) error {
	switch {
	case strings.TrimSpace(p.ID) == "":
		return errors.New("id is required")
	case strings.TrimSpace(p.UserID) == "":
		return errors.New("user_id is required")
	case !p.Type.Valid():
		return fmt.Errorf("invalid type %q", p.Type)
	case !p.Status.Valid():
		return fmt.Errorf("invalid status %q", p.Status)
	case p.Amount < 0:
		return fmt.Errorf("amount must not be negative: %v", p.Amount)
	case p.Type == domain.PaymentDeferred && p.UnlockDate == nil:
		return errors.New("deferred payment needs unlock_date")
	}
	if _, ok := missions[p.MissionID]; !ok {
		return fmt.Errorf("unknown mission %q", p.MissionID)
	}
	return nil
}
