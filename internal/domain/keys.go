package domain

// KeyPrefix is the default prefix for every key the service writes to the database.
const KeyPrefix = "tiles:"

// AnnotationKeyPrefix namespaces tile data inside annotation-style storage.
const AnnotationKeyPrefix = "tiles.data"
