package cavage

// Version identifies the draft revision this package implements.
const Version = "draft-cavage-http-signatures-12"
