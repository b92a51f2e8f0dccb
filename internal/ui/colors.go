package ui

// The functions below return the escape code of a role in the active theme.

func ColorPrimary() string   { return activeTheme().Primary }
func ColorSecondary() string { return activeTheme().Secondary }
func ColorSuccess() string   { return activeTheme().Success }
func ColorWarning() string   { return activeTheme().Warning }
func ColorError() string     { return activeTheme().Error }
func ColorInfo() string      { return activeTheme().Info }
func ColorReset() string     { return activeTheme().Reset }
