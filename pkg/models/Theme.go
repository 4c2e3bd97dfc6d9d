package models

/*
Theme holds the colors and typography used to decorate a strip. Colors
are hex strings such as "#FFD700". DateFormat is an optional Go time
layout for the footer date; when empty the long date ("January 2, 2006")
is printed. None of the built-in themes set it.
*/
type Theme struct {
	ID              string `json:"id" yaml:"id"`
	Name            string `json:"name" yaml:"name"`
	Description     string `json:"description" yaml:"description"`
	BackgroundColor string `json:"backgroundColor" yaml:"backgroundColor"`
	BorderColor     string `json:"borderColor" yaml:"borderColor"`
	AccentColor     string `json:"accentColor" yaml:"accentColor"`
	TextColor       string `json:"textColor" yaml:"textColor"`
	FontFamily      string `json:"fontFamily" yaml:"fontFamily"`
	HeaderText      string `json:"headerText" yaml:"headerText"`
	DateFormat      string `json:"dateFormat" yaml:"dateFormat"`
}
