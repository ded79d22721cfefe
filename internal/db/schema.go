package db

// SchemaSQL defines the property graph tables. Nodes carry a free-form
// properties object; edges are typed by rel_type and may only connect
// existing nodes.
const SchemaSQL = `
    DEFINE TABLE IF NOT EXISTS node SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS label ON node TYPE string;
    DEFINE FIELD IF NOT EXISTS properties ON node TYPE object FLEXIBLE DEFAULT {};
    DEFINE FIELD IF NOT EXISTS created ON node TYPE datetime DEFAULT time::now();
    DEFINE INDEX IF NOT EXISTS node_label ON node FIELDS label;

    DEFINE TABLE IF NOT EXISTS edge TYPE RELATION IN node OUT node ENFORCED SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS rel_type ON edge TYPE string;
    DEFINE FIELD IF NOT EXISTS properties ON edge TYPE object FLEXIBLE DEFAULT {};
    DEFINE FIELD IF NOT EXISTS created ON edge TYPE datetime DEFAULT time::now();
    DEFINE INDEX IF NOT EXISTS edge_rel_type ON edge FIELDS rel_type;
`
