/*
Package exchange implements the local broadcast data-exchange channel
used to move intermediate result chunks between query pipeline stages.

# Overview

One producer stage writes sequenced chunks into a channel; one consumer
stage reads them; either side may terminate the exchange early through
Finish. Termination is a single compare-and-swap on the channel's status
pointer, so all participants converge on one terminal status and exactly
one caller (the "modifier") performs the closing side effects: closing
the transport queue for hard terminations, or publishing an end-of-stream
marker for graceful ones.

Every chunk crossing the channel boundary moves its memory charge
between the producing worker's budget and the process-wide budget, so
accounting stays balanced under every exit path.

# Usage

	reg := exchange.NewRegistry()
	ch := exchange.New(exchange.Config{
		Name:     "stage-3-partition-0",
		Key:      exchange.Key{QueryID: qid, ExchangeID: 3},
		Queue:    transport.NewQueue(64),
		Registry: reg,
	})

	// consumer side
	go func() {
		if err := ch.RegisterToSenders(30 * time.Second); err != nil {
			return
		}
		for {
			ck, st := ch.Recv(time.Now().Add(10 * time.Second))
			if ck == nil {
				break // st carries the terminal code
			}
			process(ck)
		}
		ch.Close()
	}()

	// producer side
	proxy := reg.GetOrCreate(ch.Key())
	proxy.Accept()
	sender, _ := proxy.WaitRealSender(30 * time.Second)
	for _, ck := range chunks {
		if st := sender.Send(ck); st.Code.Terminal() {
			break
		}
	}
	sender.Finish(exchange.AllSendersDone, "all senders done")

# Status codes

Code zero is running. Positive codes terminate immediately and discard
queued data; negative codes let the consumer drain what is already in
flight before observing the terminal status.
*/
package exchange
