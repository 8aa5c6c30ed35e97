//go:build tinygo

package main

func setup() {}
