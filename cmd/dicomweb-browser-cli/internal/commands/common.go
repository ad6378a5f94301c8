package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/lassoan/SlicerDICOMwebBrowser/internal/app"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/dicom"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/domain/retrieval"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/infrastructure/cache"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/infrastructure/connector"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/infrastructure/imaging"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/infrastructure/indexer"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/infrastructure/persistence"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/config"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/logger"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/settings"
)

func setupLogger() (logger.Logger, error) {
	loggerSettings := &config.LoggerSettings{
		LogLevel: config.LogLevelInfo,
		LogType:  config.LogTypeConsole,
		FilePath: "",
	}

	if err := logger.InitLogger(loggerSettings); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	loggerInstance, err := logger.GetLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to get logger instance: %w", err)
	}

	return loggerInstance, nil
}

// environment bundles the persisted user settings and the wired services
// every command group works with. It is built once per process.
type environment struct {
	logger        logger.Logger
	settingsStore *settings.Store
	userSettings  *settings.Settings
	storage       *config.StorageSettings
	browse        dicom.BrowseService
	retrieval     retrieval.Service
	localIndex    dicom.LocalIndexService
	load          dicom.LoadService
}

var (
	envInstance *environment
	envErr      error
	envOnce     sync.Once
)

// getEnvironment wires the shared services on first use: user settings, the
// SQLite index under the storage root, the DICOMweb connector and the
// application services.
func getEnvironment() (*environment, error) {
	envOnce.Do(func() {
		envInstance, envErr = newEnvironment()
	})
	return envInstance, envErr
}

func newEnvironment() (*environment, error) {
	loggerInstance, err := setupLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}

	store, err := settings.NewStore(os.Getenv("DWB_SETTINGS_PATH"))
	if err != nil {
		return nil, fmt.Errorf("failed to open settings store: %w", err)
	}

	userSettings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	storagePath := userSettings.StoragePath
	if storagePath == "" {
		storagePath, err = settings.DefaultStoragePath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve storage path: %w", err)
		}
	}
	if err := os.MkdirAll(storagePath, 0700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	storage := &config.StorageSettings{Root: storagePath}
	remote := remoteSettingsFromEnv(userSettings)

	db, err := persistence.NewDBConnection(config.DatabaseSettings{
		Type: config.SqliteDbType,
		DSN:  storage.DatabaseFile(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}
	if err := persistence.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	studyRepo, err := persistence.NewGormStudyRepository(db, loggerInstance)
	if err != nil {
		return nil, fmt.Errorf("failed to create study repository: %w", err)
	}
	seriesRepo, err := persistence.NewGormSeriesRepository(db, loggerInstance)
	if err != nil {
		return nil, fmt.Errorf("failed to create series repository: %w", err)
	}
	instanceRepo, err := persistence.NewGormInstanceRepository(db, loggerInstance)
	if err != nil {
		return nil, fmt.Errorf("failed to create instance repository: %w", err)
	}
	volumeRepo, err := persistence.NewGormVolumeRepository(db, loggerInstance)
	if err != nil {
		return nil, fmt.Errorf("failed to create volume repository: %w", err)
	}

	webConnector, err := connector.NewDicomwebConnector(remote, loggerInstance)
	if err != nil {
		return nil, fmt.Errorf("failed to create DICOMweb connector: %w", err)
	}
	responseCache, err := cache.NewFileCache(storage.CacheDir(), loggerInstance)
	if err != nil {
		return nil, fmt.Errorf("failed to create response cache: %w", err)
	}
	fileIndexer, err := indexer.NewFileIndexer(storage, studyRepo, seriesRepo, instanceRepo, loggerInstance)
	if err != nil {
		return nil, fmt.Errorf("failed to create file indexer: %w", err)
	}
	assembler, err := imaging.NewVolumeAssembler(loggerInstance)
	if err != nil {
		return nil, fmt.Errorf("failed to create volume assembler: %w", err)
	}

	browseService, err := app.NewBrowseService(webConnector, responseCache, instanceRepo, loggerInstance)
	if err != nil {
		return nil, fmt.Errorf("failed to create browse service: %w", err)
	}
	loadService, err := app.NewLoadService(seriesRepo, instanceRepo, assembler, volumeRepo, loggerInstance)
	if err != nil {
		return nil, fmt.Errorf("failed to create load service: %w", err)
	}
	localIndexService, err := app.NewLocalIndexService(studyRepo, seriesRepo, instanceRepo, volumeRepo, storage, loggerInstance)
	if err != nil {
		return nil, fmt.Errorf("failed to create local index service: %w", err)
	}
	retrievalService, err := app.NewRetrievalService(webConnector, fileIndexer, loadService, instanceRepo, storage, remote, loggerInstance)
	if err != nil {
		return nil, fmt.Errorf("failed to create retrieval service: %w", err)
	}

	return &environment{
		logger:        loggerInstance,
		settingsStore: store,
		userSettings:  userSettings,
		storage:       storage,
		browse:        browseService,
		retrieval:     retrievalService,
		localIndex:    localIndexService,
		load:          loadService,
	}, nil
}

// remoteSettingsFromEnv builds the DICOMweb client settings from environment
// variables, falling back to the persisted user settings for the knobs they
// carry.
func remoteSettingsFromEnv(userSettings *settings.Settings) *config.RemoteSettings {
	remote := &config.RemoteSettings{
		ServerURL:           os.Getenv("DWB_REMOTE_SERVER_URL"),
		AuthProfile:         os.Getenv("DWB_REMOTE_AUTH_PROFILE"),
		Token:               os.Getenv("DWB_REMOTE_TOKEN"),
		Username:            os.Getenv("DWB_REMOTE_USERNAME"),
		Password:            os.Getenv("DWB_REMOTE_PASSWORD"),
		DownloadParallelism: userSettings.DownloadParallelism,
	}
	return remote
}

// resolveServerURL picks the server to talk to: the --server flag, then the
// DWB_REMOTE_SERVER_URL environment variable, then the last connected server.
func (env *environment) resolveServerURL(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if url := os.Getenv("DWB_REMOTE_SERVER_URL"); url != "" {
		return url, nil
	}
	if env.userSettings.ServerURL != "" {
		return env.userSettings.ServerURL, nil
	}
	return "", fmt.Errorf("no server URL given: use --server or run connect first")
}

// rememberServerURL pushes the URL onto the persisted history.
func (env *environment) rememberServerURL(url string) {
	env.userSettings.PushServerURL(url)
	if err := env.settingsStore.Save(env.userSettings); err != nil {
		env.logger.Warn("Failed to save settings: ", err.Error())
	}
}

// confirm asks the user on stdin unless the --yes flag was given.
func confirm(prompt string, assumeYes bool) bool {
	if assumeYes {
		return true
	}
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// splitUIDList parses a comma separated UID list flag.
func splitUIDList(value string) []string {
	var uids []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			uids = append(uids, trimmed)
		}
	}
	return uids
}
