package main

import (
	"github.com/carbocation/ldsccts/runstore"
)

type Global struct {
	log   logger
	store *runstore.Store

	Site string
}

type logger interface {
	Print(v ...interface{})
	Printf(format string, v ...interface{})
	Println(v ...interface{})
}
