package commands

import (
	"fmt"

	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/dicom"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/retrieval"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/logger"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// RetrievalCommandHandler encapsulates logic for downloading, indexing and
// loading remote series via CLI.
type RetrievalCommandHandler struct {
	logger logger.Logger
}

// NewRetrievalCommandHandler initializes and returns a
// RetrievalCommandHandler instance with a configured logger.
func NewRetrievalCommandHandler() (*RetrievalCommandHandler, error) {
	loggerInstance, err := setupLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}

	return &RetrievalCommandHandler{
		logger: loggerInstance,
	}, nil
}

// DownloadCmd downloads the selected series and indexes them into the local
// database ("download and index")
func (commandHandler *RetrievalCommandHandler) DownloadCmd(cmd *cobra.Command, _ []string) {
	commandHandler.runRetrieval(cmd, retrieval.ModeIndex)
}

// LoadCmd downloads, indexes and additionally loads the selected series into
// the scene registry ("download and load"). With --local it loads an already
// indexed series without touching the network.
func (commandHandler *RetrievalCommandHandler) LoadCmd(cmd *cobra.Command, _ []string) {
	local, err := cmd.Flags().GetBool("local")
	if err != nil {
		commandHandler.logger.Error("invalid local flag ", err)
		return
	}

	if local {
		commandHandler.loadLocal(cmd)
		return
	}
	commandHandler.runRetrieval(cmd, retrieval.ModeLoad)
}

func (commandHandler *RetrievalCommandHandler) loadLocal(cmd *cobra.Command) {
	seriesFlag, err := cmd.Flags().GetString("series")
	if err != nil || seriesFlag == "" {
		commandHandler.logger.Error("the series flag is required with --local")
		return
	}

	env, err := getEnvironment()
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	for _, seriesUID := range splitUIDList(seriesFlag) {
		volume, err := env.load.LoadSeries(cmd.Context(), seriesUID)
		if err != nil {
			commandHandler.logger.Error("failed to load series ", seriesUID, ": ", err)
			continue
		}
		fmt.Printf("Loaded %s as volume %s (%q, %d slices)\n",
			seriesUID, volume.ID, volume.Name, volume.SliceCount)
	}
}

// runRetrieval collects the series selection, starts a retrieval job and
// waits for it to finish, then prints the per-series outcome.
func (commandHandler *RetrievalCommandHandler) runRetrieval(cmd *cobra.Command, mode retrieval.Mode) {
	studyUID, err := cmd.Flags().GetString("study")
	if err != nil || studyUID == "" {
		commandHandler.logger.Error("the study flag is required")
		return
	}
	seriesFlag, err := cmd.Flags().GetString("series")
	if err != nil {
		commandHandler.logger.Error("invalid series flag ", err)
		return
	}
	allSeries, err := cmd.Flags().GetBool("all-series")
	if err != nil {
		commandHandler.logger.Error("invalid all-series flag ", err)
		return
	}
	serverFlag, err := cmd.Flags().GetString("server")
	if err != nil {
		commandHandler.logger.Error("invalid server flag ", err)
		return
	}

	env, err := getEnvironment()
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	serverURL, err := env.resolveServerURL(serverFlag)
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	seriesUIDs := splitUIDList(seriesFlag)
	if allSeries {
		result, err := env.browse.Series(cmd.Context(), &dicom.BrowseSeriesRequest{
			ServerURL:        serverURL,
			StudyInstanceUID: studyUID,
			UseCache:         env.userSettings.UseCache,
		})
		if err != nil {
			commandHandler.logger.Error(err)
			return
		}
		seriesUIDs = seriesUIDs[:0]
		for _, series := range result.Series {
			seriesUIDs = append(seriesUIDs, series.SeriesInstanceUID)
		}
	}
	if len(seriesUIDs) == 0 {
		commandHandler.logger.Error("no series selected: use --series or --all-series")
		return
	}

	items := make([]retrieval.Item, 0, len(seriesUIDs))
	for _, seriesUID := range seriesUIDs {
		items = append(items, retrieval.Item{
			StudyInstanceUID:  studyUID,
			SeriesInstanceUID: seriesUID,
		})
	}

	job, err := env.retrieval.Start(cmd.Context(), &retrieval.Request{
		ServerURL: serverURL,
		Items:     items,
		Mode:      mode,
	})
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	commandHandler.logger.Info("Started retrieval job ", job.ID, " for ", len(items), " series")

	job, err = env.retrieval.Wait(cmd.Context(), job.ID)
	if err != nil {
		commandHandler.logger.Error(err)
		return
	}

	printJobResult(job)
}

func printJobResult(job *retrieval.Job) {
	for _, item := range job.Items {
		line := fmt.Sprintf("%s: %s, %d/%d instances (%d skipped), %s",
			item.SeriesInstanceUID, item.Status,
			item.InstancesDone, item.InstancesTotal, item.InstancesSkipped,
			humanize.Bytes(uint64(item.BytesDownloaded)))
		if item.VolumeID != "" {
			line += ", volume " + item.VolumeID
		}
		if item.Error != "" {
			line += ", error: " + item.Error
		}
		fmt.Println(line)
	}

	done, total, bytes := job.Totals()
	fmt.Printf("Job %s %s: %d/%d instances, %s\n",
		job.ID, job.Status, done, total, humanize.Bytes(uint64(bytes)))
}

// InitRetrievalCommands registers download and load commands
func InitRetrievalCommands(rootCmd *cobra.Command) error {
	handler, err := NewRetrievalCommandHandler()

	if err != nil {
		return fmt.Errorf("failed to create retrieval command handler %w", err)
	}

	var downloadCmd = &cobra.Command{
		Use:   "download",
		Short: "Download series and index them into the local database",
		Run:   handler.DownloadCmd,
	}
	downloadCmd.Flags().StringP("study", "", "", "StudyInstanceUID")
	downloadCmd.Flags().StringP("series", "", "", "Comma separated SeriesInstanceUIDs")
	downloadCmd.Flags().BoolP("all-series", "", false, "Download every series of the study")
	downloadCmd.Flags().StringP("server", "", "", "DICOMweb base URL (defaults to the last connected server)")
	rootCmd.AddCommand(downloadCmd)

	var loadCmd = &cobra.Command{
		Use:   "load",
		Short: "Download, index and load series into the scene registry",
		Run:   handler.LoadCmd,
	}
	loadCmd.Flags().StringP("study", "", "", "StudyInstanceUID")
	loadCmd.Flags().StringP("series", "", "", "Comma separated SeriesInstanceUIDs")
	loadCmd.Flags().BoolP("all-series", "", false, "Load every series of the study")
	loadCmd.Flags().BoolP("local", "", false, "Load already indexed series without downloading")
	loadCmd.Flags().StringP("server", "", "", "DICOMweb base URL (defaults to the last connected server)")
	rootCmd.AddCommand(loadCmd)

	return nil
}
