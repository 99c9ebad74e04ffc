package mdxvision

// Version is the engine release reported by the CLI and the HTTP /info route.
const Version = "0.3.0"
