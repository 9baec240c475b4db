package di

import (
	"workdiary/internal/providers"
	"workdiary/internal/store"
	"workdiary/internal/structures"
)

// provideLogger hands the log files to wire so a later provider failure or
// shutdown closes them.
func provideLogger(conf *structures.Config) (providers.Logger, func(), error) {
	logger, err := providers.NewLogProvider(conf)
	if err != nil {
		return nil, nil, err
	}
	return logger, logger.Close, nil
}

func provideStore(conf *structures.Config) (*store.SQLiteStore, func(), error) {
	st, err := store.NewStoreFromConfig(conf)
	if err != nil {
		return nil, nil, err
	}
	return st, func() { _ = st.Close() }, nil
}
