// Package gozm groups the modules of a text-only Infocom Z-Machine
// interpreter: the interpreter core (zmachine), the versioned object
// tree (zobject), the ZSCII text codec (zstring), the in-image
// dictionary (dictionary), table primitives (ztable), and the
// runnable front ends under cmd/.
package gozm
