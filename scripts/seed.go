package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/zatekoja/postnatalcare/backend/internal/adapters/database"
	"github.com/zatekoja/postnatalcare/backend/internal/application/recovery"
	"github.com/zatekoja/postnatalcare/backend/internal/application/services"
	"github.com/zatekoja/postnatalcare/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/postnatalcare/backend/internal/infrastructure/observability"
	"github.com/zatekoja/postnatalcare/backend/pkg/config"
)

type demoDay struct {
	energy, mood int
	sleep        float64
	notes        string
}

// Seeds one demo sender with a profile, an emergency contact and a week of
// check-ins, then prints the resulting snapshot.
func main() {
	senderID := flag.String("sender", "919800000001", "demo sender id")
	deliveryType := flag.String("delivery", "cesarean", "vaginal or cesarean")
	daysAgo := flag.Int("days-ago", 10, "days since delivery")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger("postnatal-seed", cfg.Env)
	logger := observability.GetLogger()

	ctx := context.Background()

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pgClient.Close()

	if err := pgClient.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to apply schema")
	}

	timeline, err := recovery.LoadTimeline(cfg.Engine.RecoveryTimelinePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load recovery timeline")
	}

	profiles := database.NewProfileAdapter(pgClient)
	profileService := services.NewProfileService(profiles, database.NewEmergencyContactAdapter(pgClient))
	recoveryService := services.NewRecoveryService(services.RecoveryServiceDeps{
		Engine:   recovery.NewEngine(timeline, recovery.DefaultThresholds()),
		Profiles: profiles,
		Samples:  database.NewMetricSampleAdapter(pgClient),
	})

	today := time.Now().UTC().Truncate(24 * time.Hour)
	delivered := today.AddDate(0, 0, -*daysAgo)
	lang := "en"
	consent := true

	if _, err := profileService.UpdateProfile(ctx, *senderID, services.ProfileUpdate{
		PreferredLanguage: &lang,
		DeliveryType:      deliveryType,
		DeliveryDate:      &delivered,
		ConsentGiven:      &consent,
	}); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed profile")
	}

	if _, err := profileService.AddEmergencyContact(ctx, *senderID, services.ContactInput{
		Name:         "Demo Partner",
		Phone:        "+919800000002",
		Relationship: "partner",
	}); err != nil {
		logger.Warn().Err(err).Msg("failed to seed emergency contact")
	}

	week := []demoDay{
		{energy: 3, mood: 5, sleep: 4, notes: "little sleep, baby feeding every 2 hours"},
		{energy: 4, mood: 5, sleep: 5},
		{energy: 4, mood: 6, sleep: 5.5},
		{energy: 5, mood: 6, sleep: 6, notes: "short walk"},
		{energy: 5, mood: 7, sleep: 6},
		{energy: 6, mood: 7, sleep: 6.5},
		{energy: 6, mood: 8, sleep: 7},
	}
	seeded := 0
	for i, d := range week {
		date := today.AddDate(0, 0, i-len(week)+1)
		if date.Before(delivered) {
			continue
		}
		if _, err := recoveryService.RecordMetricSample(ctx, *senderID, services.MetricSampleInput{
			Date:        &date,
			EnergyLevel: d.energy,
			MoodScore:   d.mood,
			SleepHours:  d.sleep,
			Notes:       d.notes,
		}); err != nil {
			logger.Fatal().Err(err).Time("date", date).Msg("failed to seed metric sample")
		}
		seeded++
	}

	snapshot, err := recoveryService.Snapshot(ctx, *senderID)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build snapshot")
	}
	logger.Info().Str("sender_id", *senderID).Int("samples", seeded).Str("phase", snapshot.Phase).Msg("seed complete")

	out, _ := json.MarshalIndent(snapshot, "", "  ")
	fmt.Println(string(out))
}
