package vello

// Version is the current library version. It is overridden at release time
// via -ldflags "-X github.com/yoo94/vello.Version=vX.Y.Z".
var Version = "dev"
