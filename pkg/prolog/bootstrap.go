package prolog

// The bootstrap library: list predicates that are ordinary Prolog code
// rather than native built-ins. They load into every new engine and
// behave exactly like user clauses, including appearing in listings.
const libSource = `
% List membership and concatenation.
member(X, [X|_]).
member(X, [_|T]) :- member(X, T).

append([], L, L).
append([H|T], L, [H|R]) :- append(T, L, R).

% Positional access. The accumulator argument is always ground, so these
% enumerate when the index is unbound.
nth0(N, L, X) :- nth_from(L, 0, N, X).
nth1(N, L, X) :- nth_from(L, 1, N, X).
nth_from([X|_], I, I, X).
nth_from([_|T], I, N, X) :- J is I + 1, nth_from(T, J, N, X).

last([X], X).
last([_|T], X) :- last(T, X).

reverse(L, R) :- reverse_acc(L, [], R).
reverse_acc([], Acc, Acc).
reverse_acc([H|T], Acc, R) :- reverse_acc(T, [H|Acc], R).
`
