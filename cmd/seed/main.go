package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/hackgods/workshop-scheduler/internal/app"
	"github.com/hackgods/workshop-scheduler/internal/appointment"
	"github.com/hackgods/workshop-scheduler/internal/config"
	"github.com/hackgods/workshop-scheduler/internal/db"
	"github.com/hackgods/workshop-scheduler/internal/logging"
	"github.com/hackgods/workshop-scheduler/internal/masterdata"
	"github.com/hackgods/workshop-scheduler/internal/staff"
)

var (
	categories   = []string{"repair", "inspection", "tire change", "oil change", "bodywork", "detailing"}
	vehicleTypes = []string{"sedan", "hatchback", "SUV", "van", "light truck", "motorcycle"}
	staffColors  = []string{"#3B82F6", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6", "#EC4899"}
)

func main() {
	staffCount := flag.Int("staff", 6, "number of staff members to create")
	apptCount := flag.Int("appointments", 200, "number of appointments to attempt")
	days := flag.Int("days", 30, "spread appointments over this many days from today")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	logger := logging.New("seed", cfg.LogLevel, cfg.LogFormat, os.Stdout)
	logger.Info("seed starting", "database", db.DetectDriver(cfg.DatabaseURL).String())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	defer a.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedMasterData(ctx, a.MasterData); err != nil {
		log.Fatalf("seed master data: %v", err)
	}
	staffIDs, err := seedStaff(ctx, a.Staff, *staffCount)
	if err != nil {
		log.Fatalf("seed staff: %v", err)
	}
	created, conflicts, err := seedAppointments(ctx, a, staffIDs, *apptCount, *days)
	if err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	logger.Info("seed complete", "staff", len(staffIDs), "appointments", created, "skipped_conflicts", conflicts)
}

func seedMasterData(ctx context.Context, svc *masterdata.Service) error {
	add := func(kind masterdata.Kind, names []string) error {
		for i, name := range names {
			name, order := name, i
			_, err := svc.Create(ctx, kind, masterdata.Input{Name: &name, SortOrder: &order})
			if err != nil && !errors.Is(err, masterdata.ErrDuplicate) {
				return fmt.Errorf("%s %q: %w", kind, name, err)
			}
		}
		return nil
	}

	if err := add(masterdata.KindBusinessCategory, categories); err != nil {
		return err
	}
	return add(masterdata.KindVehicleType, vehicleTypes)
}

func seedStaff(ctx context.Context, svc *staff.Service, count int) ([]int64, error) {
	ids := make([]int64, 0, count)
	for i := 0; i < count; i++ {
		s, err := svc.Create(ctx, staff.CreateInput{
			Name:  fmt.Sprintf("%s %d", gofakeit.FirstName(), i+1),
			Color: staffColors[i%len(staffColors)],
		})
		if err != nil {
			return nil, err
		}
		ids = append(ids, s.ID)
	}
	return ids, nil
}

func seedAppointments(ctx context.Context, a *app.App, staffIDs []int64, count, days int) (created, conflicts int, err error) {
	if len(staffIDs) == 0 || days <= 0 {
		return 0, 0, nil
	}
	today := a.Clock.Today()

	for i := 0; i < count; i++ {
		day := today.AddDate(0, 0, gofakeit.Number(0, days-1))
		start := day.Add(time.Duration(gofakeit.Number(9, 16)) * time.Hour).
			Add(time.Duration(gofakeit.Number(0, 3)*15) * time.Minute)
		end := start.Add(time.Duration(gofakeit.Number(2, 8)*15) * time.Minute)

		_, err := a.Appointments.Create(ctx, appointment.CreateInput{
			CustomerName:     gofakeit.Company(),
			StaffID:          staffIDs[gofakeit.Number(0, len(staffIDs)-1)],
			VehicleType:      vehicleTypes[gofakeit.Number(0, len(vehicleTypes)-1)],
			VehicleNumber:    fmt.Sprintf("%d-%s-%04d", gofakeit.Number(100, 999), gofakeit.LetterN(1), gofakeit.Number(1, 9999)),
			Contact:          gofakeit.Phone(),
			StartTime:        start.Format(db.TimeLayout),
			EndTime:          end.Format(db.TimeLayout),
			BusinessCategory: categories[gofakeit.Number(0, len(categories)-1)],
			Notes:            gofakeit.CarMaker(),
		})
		switch {
		case errors.Is(err, appointment.ErrTimeConflict):
			conflicts++
		case err != nil:
			return created, conflicts, err
		default:
			created++
		}
	}
	return created, conflicts, nil
}
