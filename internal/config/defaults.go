package config

const (
	defaultArchive       = "data/ParlaMint-AT.tgz"
	defaultExtractDir    = "data/parlamint_at_extracted"
	defaultCorpusDir     = "data/parlamint_at_extracted/ParlaMint-AT.txt"
	defaultDatabase      = "~/.local/share/parlacorpus/corpus.db"
	defaultLogDir        = "~/.local/share/parlacorpus/logs"
	defaultTextExtension = ".txt"
	defaultMetaSuffix    = "-meta-en.tsv"
	defaultReadmePrefix  = "00README"
	defaultPostgresTable = "utterances"
	defaultDatasetPath   = "data/2022_sentiment_base.csv"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
	postgresDSNEnvVar    = "PARLACORPUS_POSTGRES_DSN"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			Archive:    defaultArchive,
			ExtractDir: defaultExtractDir,
			CorpusDir:  defaultCorpusDir,
			Database:   defaultDatabase,
			LogDir:     defaultLogDir,
		},
		Corpus: Corpus{
			TextExtension: defaultTextExtension,
			MetaSuffix:    defaultMetaSuffix,
			ReadmePrefix:  defaultReadmePrefix,
		},
		Export: Export{
			PostgresTable: defaultPostgresTable,
		},
		Dataset: Dataset{
			Path: defaultDatasetPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
