package db

// SchemaSQL defines the run store tables.
const SchemaSQL = `
    -- ==========================================================================
    -- EXTRACTION_RUN TABLE (one batch invocation)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS extraction_run SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS provider ON extraction_run TYPE string;
    DEFINE FIELD IF NOT EXISTS model ON extraction_run TYPE string;
    DEFINE FIELD IF NOT EXISTS mode ON extraction_run TYPE string;
    DEFINE FIELD IF NOT EXISTS strict ON extraction_run TYPE bool DEFAULT false;
    DEFINE FIELD IF NOT EXISTS input_dir ON extraction_run TYPE string;
    DEFINE FIELD IF NOT EXISTS output_dir ON extraction_run TYPE string;
    DEFINE FIELD IF NOT EXISTS total ON extraction_run TYPE int DEFAULT 0;
    -- files per status, filled in when the run completes
    DEFINE FIELD IF NOT EXISTS counts ON extraction_run TYPE option<object> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS started_at ON extraction_run TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS completed_at ON extraction_run TYPE option<datetime>;

    DEFINE INDEX IF NOT EXISTS extraction_run_started ON extraction_run FIELDS started_at;

    -- ==========================================================================
    -- FILE_RUN TABLE (one RunRecord)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS file_run SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS run ON file_run TYPE record<extraction_run>;
    DEFINE FIELD IF NOT EXISTS file ON file_run TYPE string;
    DEFINE FIELD IF NOT EXISTS mode ON file_run TYPE string;
    DEFINE FIELD IF NOT EXISTS chunks ON file_run TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS elapsed_ms ON file_run TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS failed_chunks ON file_run TYPE array<int>;
    DEFINE FIELD IF NOT EXISTS records ON file_run TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS status ON file_run TYPE string;
    DEFINE FIELD IF NOT EXISTS output ON file_run TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS error ON file_run TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS created ON file_run TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS file_run_run ON file_run FIELDS run;
    DEFINE INDEX IF NOT EXISTS file_run_status ON file_run FIELDS status;

    -- ==========================================================================
    -- REGISTER_RECORD TABLE (one extracted notice)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS register_record SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS run ON register_record TYPE record<extraction_run>;
    DEFINE FIELD IF NOT EXISTS file ON register_record TYPE record<file_run>;
    DEFINE FIELD IF NOT EXISTS position ON register_record TYPE int;
    DEFINE FIELD IF NOT EXISTS Court_name ON register_record TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS Date_of_article ON register_record TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS Company_name ON register_record TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS Registration_Code ON register_record TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS Registration_year ON register_record TYPE option<string>;

    DEFINE INDEX IF NOT EXISTS register_record_file ON register_record FIELDS file;
    DEFINE INDEX IF NOT EXISTS register_record_code ON register_record FIELDS Registration_Code;
    DEFINE ANALYZER IF NOT EXISTS register_analyzer TOKENIZERS class FILTERS lowercase, ascii;
    DEFINE INDEX IF NOT EXISTS register_record_company_ft ON register_record FIELDS Company_name FULLTEXT ANALYZER register_analyzer BM25;
`
