package lcu

import (
	"encoding/json"
	"log/slog"
	"os"

	"riftcap/internal/logging"
)

// PathFinder locates the League of Legends install directory when no
// explicit path is configured. It consults the Riot Client settings file
// first, then a list of well-known install locations.
type PathFinder struct {
	logger          *slog.Logger
	riotConfigPaths []string
	commonPaths     []string
}

// NewPathFinder builds a finder with the default candidate locations.
func NewPathFinder(logger *slog.Logger) *PathFinder {
	return &PathFinder{
		logger: logging.WithComponent(logger, "pathfinder"),
		riotConfigPaths: []string{
			"C:/Riot Games/Riot Client/Config/global.json",
			"C:/Program Files/Riot Games/Riot Client/Config/global.json",
			"C:/ProgramData/Riot Games/Riot Client/Config/global.json",
		},
		commonPaths: []string{
			"C:/Riot Games/League of Legends",
			"D:/Riot Games/League of Legends",
			"C:/Program Files/Riot Games/League of Legends",
			"C:/Program Files (x86)/Riot Games/League of Legends",
		},
	}
}

// Find returns the install directory and whether one was located.
func (f *PathFinder) Find() (string, bool) {
	for _, settings := range f.riotConfigPaths {
		path, ok := f.fromRiotSettings(settings)
		if !ok {
			continue
		}
		if dirExists(path) {
			f.logger.Info("found League install from Riot Client settings", logging.String("path", path))
			return path, true
		}
	}
	for _, path := range f.commonPaths {
		if dirExists(path) {
			f.logger.Info("found League install in common location", logging.String("path", path))
			return path, true
		}
	}
	f.logger.Warn("could not find League of Legends install path")
	return "", false
}

func (f *PathFinder) fromRiotSettings(settingsPath string) (string, bool) {
	data, err := os.ReadFile(settingsPath)
	if err != nil {
		return "", false
	}
	var settings struct {
		InstallDir struct {
			LeagueOfLegends string `json:"league_of_legends"`
		} `json:"install_dir"`
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		f.logger.Debug("failed to parse Riot Client settings", logging.String("path", settingsPath), logging.Error(err))
		return "", false
	}
	if settings.InstallDir.LeagueOfLegends == "" {
		return "", false
	}
	return settings.InstallDir.LeagueOfLegends, true
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
