package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/terraincognita07/rehab360/internal/models"
	"github.com/terraincognita07/rehab360/internal/prediction"
	"github.com/terraincognita07/rehab360/internal/remote"
	"github.com/terraincognita07/rehab360/internal/services"
	"github.com/terraincognita07/rehab360/internal/store"
)

// Sleep debt is summed over the last week of entries.
const sleepDebtWindow = 7

var errEmptyPatch = errors.New("nothing to record, pass at least one field flag")

type logFlags struct {
	date         string
	sleepHours   float64
	sleepQuality int
	craving      int
	cravingTime  string
	trigger      string
	mood         string
	water        int
	exercise     int
	meditation   int
	meds         bool
	notes        string
}

func bindLogFlags(cmd *cobra.Command, flags *logFlags, withDate bool) {
	f := cmd.Flags()
	if withDate {
		f.StringVar(&flags.date, "date", "", "log date YYYY-MM-DD (default today)")
	}
	f.Float64Var(&flags.sleepHours, "sleep-hours", 0, "hours slept, 0-24")
	f.IntVar(&flags.sleepQuality, "sleep-quality", 0, "sleep quality, 0-100")
	f.IntVar(&flags.craving, "craving", 0, "craving intensity, 1-10")
	f.StringVar(&flags.cravingTime, "craving-time", "", "time of the strongest craving, HH:MM")
	f.StringVar(&flags.trigger, "trigger", "", "what triggered the craving")
	f.StringVar(&flags.mood, "mood", "", "mood tag: "+strings.Join(models.MoodTags(), ", "))
	f.IntVar(&flags.water, "water", 0, "glasses of water")
	f.IntVar(&flags.exercise, "exercise", 0, "exercise minutes")
	f.IntVar(&flags.meditation, "meditation", 0, "meditation minutes")
	f.BoolVar(&flags.meds, "meds", false, "took medication")
	f.StringVar(&flags.notes, "notes", "", "free text notes")
}

// patch holds only the flags given on the command line.
func (flags *logFlags) patch(cmd *cobra.Command) (models.LogPatch, error) {
	changed := cmd.Flags().Changed
	var patch models.LogPatch
	if changed("date") {
		patch.LogDate = &flags.date
	}
	if changed("sleep-hours") {
		patch.SleepHours = &flags.sleepHours
	}
	if changed("sleep-quality") {
		patch.SleepQuality = &flags.sleepQuality
	}
	if changed("craving") {
		patch.CravingIntensity = &flags.craving
	}
	if changed("craving-time") {
		patch.CravingTime = &flags.cravingTime
	}
	if changed("trigger") {
		patch.CravingTrigger = &flags.trigger
	}
	if changed("mood") {
		patch.MoodTag = &flags.mood
	}
	if changed("water") {
		patch.WaterGlasses = &flags.water
	}
	if changed("exercise") {
		patch.ExerciseMinutes = &flags.exercise
	}
	if changed("meditation") {
		patch.MeditationMinutes = &flags.meditation
	}
	if changed("meds") {
		patch.TookMeds = &flags.meds
	}
	if changed("notes") {
		patch.Notes = &flags.notes
	}
	if patch.IsEmpty() {
		return models.LogPatch{}, errEmptyPatch
	}
	return patch, nil
}

func newLogCommand(rt *runtime) *cobra.Command {
	var flags logFlags
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Record or merge today's entry (or the one for --date)",
		Example: `  rehab360 log --sleep-hours 7.5 --sleep-quality 80
  rehab360 log --craving 6 --craving-time 21:30 --trigger stress --mood anxious`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			patch, err := flags.patch(cmd)
			if err != nil {
				return err
			}
			return rt.withStore(func(journal *store.Store, _ *remote.Client) error {
				stored, err := journal.AddOrMergeLog(cmd.Context(), patch)
				if err != nil {
					return describeRemoteError(err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), RenderSuccess("Saved "+stored.LogDate))
				fmt.Fprintln(cmd.OutOrStdout(), renderLogLine(stored))
				return nil
			})
		},
	}
	bindLogFlags(cmd, &flags, true)
	return cmd
}

func newUpdateCommand(rt *runtime) *cobra.Command {
	var flags logFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of an existing entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := flags.patch(cmd)
			if err != nil {
				return err
			}
			return rt.withStore(func(journal *store.Store, _ *remote.Client) error {
				stored, err := journal.UpdateLog(cmd.Context(), args[0], patch)
				if err != nil {
					return describeRemoteError(err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), RenderSuccess("Updated "+stored.LogDate))
				fmt.Fprintln(cmd.OutOrStdout(), renderLogLine(stored))
				return nil
			})
		},
	}
	bindLogFlags(cmd, &flags, false)
	return cmd
}

func newListCommand(rt *runtime) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show recent entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.withStore(func(journal *store.Store, _ *remote.Client) error {
				logs := journal.Snapshot()
				if limit > 0 && len(logs) > limit {
					logs = logs[:limit]
				}
				fmt.Fprintln(cmd.OutOrStdout(), RenderLogs(logs))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", services.DefaultLogListLimit, "maximum entries to show, 0 for all")
	return cmd
}

func newSyncCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replace local entries with the server copy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.withStore(func(journal *store.Store, _ *remote.Client) error {
				if _, err := requireSession(journal); err != nil {
					return err
				}
				if err := journal.Refetch(cmd.Context()); err != nil {
					return describeRemoteError(err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), RenderSuccess(fmt.Sprintf("%d entries on this device", len(journal.Snapshot()))))
				return nil
			})
		},
	}
}

func newClearCommand(rt *runtime) *cobra.Command {
	var confirmed bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every entry locally and on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirmed {
				return errors.New("refusing to delete entries without --yes")
			}
			return rt.withStore(func(journal *store.Store, _ *remote.Client) error {
				if err := journal.Clear(cmd.Context()); err != nil {
					return describeRemoteError(err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), RenderSuccess("All entries deleted"))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&confirmed, "yes", false, "confirm deletion")
	return cmd
}

func newInsightsCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "insights",
		Short: "Show insights and the two-week summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.withStore(func(journal *store.Store, _ *remote.Client) error {
				logs := journal.Snapshot()
				now := time.Now()

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, RenderSummary(
					services.BuildAnalyticsSummary(logs, now),
					services.CravingRiskByTimeOfDay(logs),
					services.TotalSleepDebt(services.MostRecent(logs, sleepDebtWindow)),
				))
				fmt.Fprintln(out, RenderInsights(services.InsightRules(logs)))
				return nil
			})
		},
	}
}

func newPredictCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "predict",
		Short: "Ask for tomorrow's craving outlook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.withStore(func(journal *store.Store, client *remote.Client) error {
				session, err := requireSession(journal)
				if err != nil {
					return err
				}
				predictor := prediction.NewClient(client, session.Token, rt.logger)
				result, err := predictor.FetchPrediction(cmd.Context(), journal.Snapshot())
				fmt.Fprintln(cmd.OutOrStdout(), RenderPrediction(result))
				if err != nil {
					fmt.Fprintln(cmd.OutOrStdout(), RenderError(describeRemoteError(err)))
				}
				return nil
			})
		},
	}
}
