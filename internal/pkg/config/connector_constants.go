package config

// AuthProfilePlain sends requests without credentials
const AuthProfilePlain = "plain"

// AuthProfileBearer sends a static bearer token from the settings
const AuthProfileBearer = "bearer"

// AuthProfileBasic sends HTTP basic credentials from the settings
const AuthProfileBasic = "basic"

// AuthProfileGoogle mints short-lived bearer tokens through the gcloud CLI
const AuthProfileGoogle = "google"

// AuthProfileKheops derives basic credentials from a Kheops album share URL
const AuthProfileKheops = "kheops"
