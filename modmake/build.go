package main

import (
	. "github.com/saylorsolutions/modmake"
)

const (
	cawVersion = "0.1.0"
)

func main() {
	b := NewBuild()
	b.Generate().DependsOnRunner("tidy", "", Go().ModTidy())

	caw := NewAppBuild("caw", "cmd/caw", cawVersion)
	caw.Build(func(gb *GoBuild) {
		gb.
			StripDebugSymbols().
			SetVariable("main", "version", cawVersion).
			CgoEnabled(false)
	})
	caw.Variant("windows", "amd64")
	caw.Variant("linux", "amd64")
	caw.Variant("linux", "arm64")
	caw.Variant("darwin", "amd64")
	caw.Variant("darwin", "arm64")
	b.ImportApp(caw)

	b.Execute()
}
