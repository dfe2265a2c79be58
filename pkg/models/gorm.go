package models

// ModelsToAutoMigrate returns the models owned by this service. The
// profiles table normally belongs to the auth provider's database; it is
// only migrated for local SQLite setups and tests.
func ModelsToAutoMigrate() []interface{} {
	return []interface{}{
		&Profile{},
	}
}
