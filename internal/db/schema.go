package db

const (
	tableRun       = "run"
	tableSignature = "decay_signature"
)

// SchemaSQL defines the ledger tables.
const SchemaSQL = `
    DEFINE TABLE IF NOT EXISTS run SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS input ON run TYPE string;
    DEFINE FIELD IF NOT EXISTS tree ON run TYPE string;
    DEFINE FIELD IF NOT EXISTS output ON run TYPE string;
    DEFINE FIELD IF NOT EXISTS status ON run TYPE string DEFAULT "pending";
    DEFINE FIELD IF NOT EXISTS total ON run TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS progress ON run TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS seen ON run TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS weighted ON run TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS error ON run TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS started_at ON run TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS completed_at ON run TYPE option<datetime>;

    DEFINE INDEX IF NOT EXISTS run_status ON run FIELDS status;
    DEFINE INDEX IF NOT EXISTS run_started ON run FIELDS started_at;

    -- Keyed by the absolute-code signature, e.g. decay_signature:⟨0_521_423_421_111_0⟩.
    DEFINE TABLE IF NOT EXISTS decay_signature SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS label ON decay_signature TYPE string;
    DEFINE FIELD IF NOT EXISTS count ON decay_signature TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS updated ON decay_signature TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS decay_signature_count ON decay_signature FIELDS count;
`
