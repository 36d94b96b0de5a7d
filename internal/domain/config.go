package domain

// KeyPrefix namespaces every key the service writes to the cache store.
const KeyPrefix = "triage:"
