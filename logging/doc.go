/*
Package logging bridges zap to the Tarmac host logging capability.

Everything in this module logs through a *zap.Logger. When the directory runs
as a Tarmac WebAssembly function there is no stdout worth writing to, so
NewCore provides a zapcore.Core that encodes each entry and hands it to the
host under the Debug, Info, Warn or Error function matching its level.
*/
package logging
