package app

import "chatstore/pkg/banner"

func (a *App) printBanner() {
	v := a.version
	if a.commit != "" {
		v = v + " (" + a.commit + ")"
	}
	banner.Print(a.cfg, v)
}
