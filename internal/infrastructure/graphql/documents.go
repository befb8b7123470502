package graphql

// 返却画面が送信するGraphQLドキュメント
const (
	issuedBooksQuery = `
  query GetIssuedBooks($memberId: Int!) {
    issuedBooks(memberId: $memberId) {
      issueDate
      id
      member {
        firstName
        lastName
      }
      book {
        title
        author
        publicationYear
      }
      fee
    }
  }
`

	getMemberQuery = `
  query GetMember($memberId: Int!) {
    getMember(memberId: $memberId) {
      id
      firstName
      lastName
      email
      phoneNumber
      balance
    }
  }
`

	returnBookMutation = `
  mutation ReturnBook($transactionId: Int!) {
    returnBook(transactionId: $transactionId) {
      fee
      id
      issueDate
      returnDate
      book {
        id
        title
        publicationYear
        isbn
      }
      member {
        balance
        lastName
        firstName
      }
    }
  }
`
)
